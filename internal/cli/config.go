package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/prelude/internal/paths"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyFormat   = "artifact_format"
	cfgKeyStrict   = "strict_artifacts"
	cfgKeyLogLevel = "log_level"

	// envPrefix makes PRELUDE_ARTIFACT_FORMAT and friends override the file.
	envPrefix = "PRELUDE"
)

// loadConfig reads config.yaml from configDir using Viper. A missing file or
// directory is not an error; defaults apply.
func loadConfig(configDir string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyFormat, types.DefaultFormat)
	v.SetDefault(cfgKeyStrict, false)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		ArtifactFormat:  v.GetString(cfgKeyFormat),
		StrictArtifacts: v.GetBool(cfgKeyStrict),
		LogLevel:        v.GetString(cfgKeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config %s: %w", filepath.Join(configDir, paths.ConfigFileName), err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with cfg if the file does not
// exist. It reports whether the file was written.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	exists, err := paths.Exists(path)
	if err != nil {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if exists {
		return false, nil
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
