package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/prelude/pkg/scalar"
)

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeLines writes one formatted value per line.
func writeLines(w io.Writer, values []any) error {
	for _, v := range values {
		if _, err := fmt.Fprintln(w, scalar.Format(v)); err != nil {
			return err
		}
	}
	return nil
}
