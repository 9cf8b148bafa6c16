package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/prelude/internal/paths"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long:  "Create the configuration directory and a default config.yaml. An existing config.yaml is left untouched.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(a.configDir, paths.ConfigFileName)
	cfg := types.Config{ArtifactFormat: types.DefaultFormat, LogLevel: "info"}
	written, err := writeConfigIfMissing(path, cfg)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if written {
		a.log.Debug("config written", zap.String("path", path))
		fmt.Fprintf(cmd.OutOrStdout(), "prelude initialized: %s\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "prelude already initialized: %s\n", path)
	}
	return nil
}
