// Package paths resolves the configuration directory and prepares the
// filesystem locations records are saved to.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mesh-intelligence/prelude/pkg/types"
)

// AppName names the per-user configuration directory.
const AppName = "prelude"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "PRELUDE_CONFIG_DIR"

// ConfigFileName is the configuration file inside the configuration directory.
const ConfigFileName = "config.yaml"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/prelude (fallback ~/.config/prelude)
// macOS:   ~/Library/Application Support/prelude
// Windows: %APPDATA%/prelude
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > PRELUDE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// Exists reports whether path exists. Errors other than absence are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// EnsurePath prepares the directory at path and returns it.
//
// Without create the directory must already exist (ErrPathNotFound). With
// create a missing directory is made with its parents; an existing one is an
// ErrAlreadyExists unless overwrite is set, in which case it is removed and
// recreated empty.
func EnsurePath(path string, create, overwrite bool) (string, error) {
	info, err := os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	if !create {
		if !exists {
			return "", fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%s is not a directory: %w", path, types.ErrPathNotFound)
		}
		return path, nil
	}

	if exists {
		if !overwrite {
			return "", fmt.Errorf("%s: %w", path, types.ErrAlreadyExists)
		}
		if err := os.RemoveAll(path); err != nil {
			return "", fmt.Errorf("removing %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	return path, nil
}

// EnsureFile checks that a file may be written at path and creates its parent
// directory. An existing path is an ErrAlreadyExists unless overwrite is set.
func EnsureFile(path string, overwrite bool) (string, error) {
	exists, err := Exists(path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if exists && !overwrite {
		return "", fmt.Errorf("%s: %w", path, types.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	return path, nil
}
