package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prelude/pkg/store"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Describe a saved record",
		Long: `Inspect reports the document fields of a record saved by the prelude store
and, for a record directory, the shape of every tabular artifact in it.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.New(a.cfg, store.WithLogger(a.log))
			if err != nil {
				return err
			}
			m, err := s.Inspect(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), m)
			}

			w := cmd.OutOrStdout()
			kind := "file"
			if m.Directory {
				kind = "directory"
			}
			fmt.Fprintf(w, "%s (%s)\n", m.Path, kind)
			fmt.Fprintf(w, "fields: %s\n", strings.Join(m.Fields, ", "))
			for _, t := range m.Tables {
				if t.Error != "" {
					fmt.Fprintf(w, "  %s [%s]: unreadable: %s\n", t.Field, t.Format, t.Error)
					continue
				}
				fmt.Fprintf(w, "  %s [%s]: %s rows x %s cols (%s)\n",
					t.Field, t.Format,
					humanize.Comma(int64(t.Rows)), humanize.Comma(int64(len(t.Columns))),
					strings.Join(t.Columns, ", "))
			}
			return nil
		},
	}
}
