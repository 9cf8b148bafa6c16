package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prelude/pkg/collections"
)

type vennResult struct {
	Left  []any `json:"left"`
	Both  []any `json:"both"`
	Right []any `json:"right"`
}

func newVennCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "venn <left> <right>",
		Short: "Split two collections into left-only, shared and right-only sets",
		Long: `Venn flattens both values (mappings and tables contribute their values)
and prints the members only on the left, on both sides and only on the right.

Example:
  prelude venn '[1,1,1,1,1]' '[22,3,3,2,3,2]'`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, both, right, err := collections.Venn(parseArg(args[0]), parseArg(args[1]))
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), vennResult{
					Left:  members(left),
					Both:  members(both),
					Right: members(right),
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "left:  %s\n", left)
			fmt.Fprintf(w, "both:  %s\n", both)
			fmt.Fprintf(w, "right: %s\n", right)
			return nil
		},
	}
}

// members returns the sorted members, never nil, so JSON shows [].
func members(s *collections.Set) []any {
	out := s.Sorted()
	if out == nil {
		return []any{}
	}
	return out
}
