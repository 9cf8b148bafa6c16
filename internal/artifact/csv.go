package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// CSV writes a header row followed by one row per frame row. Cells are
// rendered with scalar.Format and inferred back with scalar.Parse, so an empty
// string reads back as nil and numeric-looking strings read back as numbers.
type CSV struct{}

func (CSV) Format() string { return types.FormatCSV }

func (CSV) Write(path string, f *frame.Frame) error {
	return WriteAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := writeRecord(cw, w, f.Columns()); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		record := make([]string, f.Width())
		for _, row := range f.Rows() {
			for i, v := range row {
				record[i] = scalar.Format(v)
			}
			if err := writeRecord(cw, w, record); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// writeRecord writes a single empty field as "" since a bare empty line
// would be skipped on read.
func writeRecord(cw *csv.Writer, w io.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return cw.Write(record)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}

func (CSV) Read(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return frame.New(), nil
	}
	if err != nil {
		return nil, malformed(path, err)
	}

	var rows [][]any
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(path, err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = scalar.Parse(cell)
		}
		rows = append(rows, row)
	}

	f, err := frame.FromRows(header, rows...)
	if err != nil {
		return nil, malformed(path, err)
	}
	return f, nil
}
