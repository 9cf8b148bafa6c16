package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/prelude/pkg/flatten"
)

type flattenFlags struct {
	input        string
	field        string
	mode         string
	distinct     bool
	sort         bool
	strict       bool
	allowNull    bool
	errorIfEmpty bool
}

func newFlattenCmd(a *app) *cobra.Command {
	var f flattenFlags
	cmd := &cobra.Command{
		Use:   "flatten [value...]",
		Short: "Flatten nested values into a list",
		Long: `Flatten walks each value and emits its scalars in order.

Values are read as JSON; text that is not JSON is taken literally. With
--input the value is read from a file instead: .csv, .jsonl and .sqlite
files are loaded as tables, .yaml files as YAML and anything else as JSON.

Example:
  prelude flatten 1 '[2,[3,4]]' --distinct --sort
  prelude flatten '{"a":[1,2],"b":[3]}' --field b
  prelude flatten --input scores.csv --field score --mode values`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFlatten(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "read the value from a file")
	fl.StringVarP(&f.field, "field", "f", "", "extract this column or key from tables and mappings")
	fl.StringVarP(&f.mode, "mode", "m", "keys", "what tables and mappings contribute without a field: keys or values")
	fl.BoolVarP(&f.distinct, "distinct", "d", false, "drop repeated values, keeping the first")
	fl.BoolVarP(&f.sort, "sort", "s", false, "sort ascending")
	fl.BoolVar(&f.strict, "strict", false, "fail when a table or mapping lacks the field")
	fl.BoolVar(&f.allowNull, "allow-null", false, "keep null values")
	fl.BoolVar(&f.errorIfEmpty, "error-if-empty", false, "fail when the result is empty")
	return cmd
}

func (a *app) runFlatten(cmd *cobra.Command, args []string, f flattenFlags) error {
	mode, err := flatten.ParseMode(f.mode)
	if err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}

	values := make([]any, 0, len(args)+1)
	for _, arg := range args {
		values = append(values, parseArg(arg))
	}
	if f.input != "" {
		v, err := readInput(f.input)
		if err != nil {
			return err
		}
		values = append(values, v)
	}

	out, err := flatten.Flatten(flatten.Request{
		Args:         values,
		Field:        f.field,
		Mode:         mode,
		Distinct:     f.distinct,
		Sort:         f.sort,
		ErrorIfEmpty: f.errorIfEmpty,
		Strict:       f.strict,
		AllowNull:    f.allowNull,
	})
	if err != nil {
		return err
	}
	a.log.Debug("flattened", zap.Int("inputs", len(values)), zap.Int("values", len(out)))

	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	return writeLines(cmd.OutOrStdout(), out)
}
