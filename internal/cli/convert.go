package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/prelude/internal/artifact"
	"github.com/mesh-intelligence/prelude/internal/paths"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

func newConvertCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Convert a tabular artifact between csv, jsonl and sqlite",
		Long: `Convert reads a table from src and writes it to dst. Formats are chosen by
file extension.

Example:
  prelude convert model/df.csv model/df.sqlite`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args[0], args[1], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite dst if it exists")
	return cmd
}

func codecFor(path string) (artifact.Codec, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := artifact.For(ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (a *app) runConvert(cmd *cobra.Command, src, dst string, force bool) error {
	start := time.Now()
	from, err := codecFor(src)
	if err != nil {
		return err
	}
	to, err := codecFor(dst)
	if err != nil {
		return err
	}
	if _, err := paths.EnsureFile(dst, force); err != nil {
		return err
	}

	f, err := from.Read(src)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", src, types.ErrPathNotFound)
	}
	if err != nil {
		return err
	}
	if err := to.Write(dst, f); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}

	a.log.Debug("converted",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Duration("elapsed", time.Since(start)))
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"src":     src,
			"dst":     dst,
			"rows":    f.Len(),
			"columns": f.Columns(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "converted %s -> %s (%s rows, %s cols)\n",
		src, dst, humanize.Comma(int64(f.Len())), humanize.Comma(int64(f.Width())))
	return nil
}
