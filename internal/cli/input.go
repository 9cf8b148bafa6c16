package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/prelude/internal/artifact"
	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// parseArg reads a command-line value as JSON. Text that is not valid JSON
// is inferred with scalar.Parse, so bare words stay strings.
func parseArg(s string) any {
	v, err := decodeJSON([]byte(s))
	if err != nil {
		return scalar.Parse(s)
	}
	return v
}

// decodeJSON decodes a single JSON value, keeping integers as int64.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return numbers(v), nil
}

// numbers replaces json.Number leaves with int64 or float64.
func numbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return scalar.Normalize(x)
	case map[string]any:
		for k, e := range x {
			x[k] = numbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = numbers(e)
		}
	}
	return v
}

// readInput loads a value from a file: tabular artifacts become frames,
// .yaml and .yml files are decoded with yaml.v3 and anything else as JSON.
func readInput(path string) (any, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if c, err := artifact.For(ext); err == nil {
		f, err := c.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	switch ext {
	case "yaml", "yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %v: %w", path, err, types.ErrSerialization)
		}
		return v, nil
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %v: %w", path, err, types.ErrSerialization)
	}
	return v, nil
}
