package types

import (
	"errors"
	"strings"
)

// Config selects how a store persists tabular fields and how loudly it reports.
type Config struct {
	ArtifactFormat  string `json:"artifact_format" yaml:"artifact_format"`
	StrictArtifacts bool   `json:"strict_artifacts" yaml:"strict_artifacts"`
	LogLevel        string `json:"log_level" yaml:"log_level"`
}

// Supported artifact formats.
const (
	FormatCSV    = "csv"
	FormatJSONL  = "jsonl"
	FormatSQLite = "sqlite"
)

// DefaultFormat is used when ArtifactFormat is empty.
const DefaultFormat = FormatCSV

// Config validation errors.
var (
	ErrFormatUnknown   = errors.New("unknown artifact format")
	ErrLogLevelInvalid = errors.New("invalid log level")
)

// knownFormats lists the formats that Validate accepts.
var knownFormats = map[string]bool{
	FormatCSV:    true,
	FormatJSONL:  true,
	FormatSQLite: true,
}

var knownLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Formats returns the supported artifact formats, default first.
func Formats() []string {
	return []string{FormatCSV, FormatJSONL, FormatSQLite}
}

// Format returns the configured artifact format, falling back to DefaultFormat.
func (c Config) Format() string {
	if c.ArtifactFormat == "" {
		return DefaultFormat
	}
	return strings.ToLower(c.ArtifactFormat)
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if !knownFormats[c.Format()] {
		return ErrFormatUnknown
	}
	if !knownLevels[strings.ToLower(c.LogLevel)] {
		return ErrLogLevelInvalid
	}
	return nil
}
