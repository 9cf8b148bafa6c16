package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// maxLine bounds a single JSONL row.
const maxLine = 16 << 20

// JSONL writes the column names as a JSON array on the first line and each
// row as a JSON array on its own line. Floats keep a decimal point so that
// integral floats read back as floats.
type JSONL struct{}

func (JSONL) Format() string { return types.FormatJSONL }

func (JSONL) Write(path string, f *frame.Frame) error {
	header, err := json.Marshal(f.Columns())
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	lines := [][]byte{header}
	for r, row := range f.Rows() {
		cells := make([]any, len(row))
		for i, v := range row {
			cell, err := jsonCell(v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", r, f.Columns()[i], err)
			}
			cells[i] = cell
		}
		line, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encoding row %d: %v: %w", r, err, types.ErrSerialization)
		}
		lines = append(lines, line)
	}

	return WriteAtomic(path, func(w io.Writer) error {
		for _, line := range lines {
			if _, err := w.Write(line); err != nil {
				return fmt.Errorf("writing record: %w", err)
			}
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
		return nil
	})
}

func jsonCell(v any) (any, error) {
	f, ok := v.(float64)
	if !ok {
		return v, nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v: %w", f, types.ErrSerialization)
	}
	return json.Number(scalar.FormatFloat(f)), nil
}

func (JSONL) Read(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var (
		header []string
		rows   [][]any
		seen   bool
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for n := 1; scanner.Scan(); n++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !seen {
			if err := json.Unmarshal(line, &header); err != nil {
				return nil, malformed(path, fmt.Errorf("line %d: %w", n, err))
			}
			seen = true
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var cells []any
		if err := dec.Decode(&cells); err != nil {
			return nil, malformed(path, fmt.Errorf("line %d: %w", n, err))
		}
		for i, c := range cells {
			cells[i] = scalar.Normalize(c)
		}
		rows = append(rows, cells)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(path, err)
	}

	f, err := frame.FromRows(header, rows...)
	if err != nil {
		return nil, malformed(path, err)
	}
	return f, nil
}
