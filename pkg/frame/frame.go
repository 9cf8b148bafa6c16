// Package frame provides the in-memory tabular artifact: a Frame of ordered,
// named columns sharing one row index, and the Series a single column is
// viewed as.
//
// Cell values are normalized on the way in (see scalar.Normalize) so that a
// frame read back from disk compares equal to the frame that was written.
package frame

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// Index labels the rows of a frame or series. A nil Labels slice means the
// default range index 0..n-1.
type Index struct {
	Name   string
	Labels []any
}

// RangeIndex returns the default index for n rows.
func RangeIndex(n int) Index {
	labels := make([]any, n)
	for i := range labels {
		labels[i] = int64(i)
	}
	return Index{Labels: labels}
}

// Len returns the number of labels.
func (ix Index) Len() int {
	return len(ix.Labels)
}

// Elements returns the labels in order.
func (ix Index) Elements() []any {
	return ix.Labels
}

func (ix Index) resolve(n int) Index {
	if ix.Labels != nil {
		return ix
	}
	r := RangeIndex(n)
	r.Name = ix.Name
	return r
}

// Series is a named one-dimensional column with an aligned index.
type Series struct {
	Name   string
	Values []any
	Index  Index
}

// NewSeries builds a series with the default range index.
func NewSeries(name string, values ...any) Series {
	return Series{Name: name, Values: normalizeAll(values)}
}

// Len returns the number of values.
func (s Series) Len() int {
	return len(s.Values)
}

// Keys returns the series index, materializing the range index when no
// labels were set.
func (s Series) Keys() Index {
	return s.Index.resolve(len(s.Values))
}

// Frame is a two-dimensional table of named columns. The zero value is not
// usable; construct frames with New, FromColumns, FromRows or FromRecords.
// A nil *Frame behaves as an empty frame for the read-only accessors.
type Frame struct {
	names   []string
	columns map[string][]any
	rows    int
	index   Index
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{columns: make(map[string][]any)}
}

// FromColumns builds a frame from parallel column slices.
func FromColumns(names []string, columns ...[]any) (*Frame, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%d names for %d columns: %w", len(names), len(columns), types.ErrLengthMismatch)
	}
	f := New()
	for i, name := range names {
		if err := f.AddColumn(name, columns[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// FromRows builds a frame from row slices laid out in names order.
func FromRows(names []string, rows ...[]any) (*Frame, error) {
	columns := make([][]any, len(names))
	for i := range columns {
		columns[i] = make([]any, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d values for %d columns: %w", r, len(row), len(names), types.ErrLengthMismatch)
		}
		for c, v := range row {
			columns[c][r] = v
		}
	}
	f, err := FromColumns(names, columns...)
	if err != nil {
		return nil, err
	}
	f.rows = len(rows)
	return f, nil
}

// FromRecords builds a frame with the given column order from row maps.
// Keys missing from a record become nil cells; keys not listed in names are
// ignored.
func FromRecords(names []string, records ...map[string]any) (*Frame, error) {
	rows := make([][]any, len(records))
	for r, rec := range records {
		row := make([]any, len(names))
		for c, name := range names {
			row[c] = rec[name]
		}
		rows[r] = row
	}
	return FromRows(names, rows...)
}

// AddColumn appends a column. The first column fixes the row count unless an
// index was already set.
func (f *Frame) AddColumn(name string, values []any) error {
	if _, ok := f.columns[name]; ok {
		return fmt.Errorf("column %q: %w", name, types.ErrDuplicateColumn)
	}
	if (len(f.names) > 0 || f.index.Labels != nil) && len(values) != f.rows {
		return fmt.Errorf("column %q has %d values, frame has %d rows: %w", name, len(values), f.rows, types.ErrLengthMismatch)
	}
	f.names = append(f.names, name)
	f.columns[name] = normalizeAll(values)
	f.rows = len(values)
	return nil
}

// SetIndex replaces the row index. Labels must match the row count unless the
// frame has no columns yet.
func (f *Frame) SetIndex(ix Index) error {
	if ix.Labels != nil && len(f.names) > 0 && len(ix.Labels) != f.rows {
		return fmt.Errorf("index has %d labels, frame has %d rows: %w", len(ix.Labels), f.rows, types.ErrLengthMismatch)
	}
	if ix.Labels != nil {
		ix.Labels = normalizeAll(ix.Labels)
		f.rows = len(ix.Labels)
	}
	f.index = ix
	return nil
}

// Index returns the row index, materializing the range index when no labels
// were set.
func (f *Frame) Index() Index {
	if f == nil {
		return RangeIndex(0)
	}
	return f.index.resolve(f.rows)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.names)
}

// HasColumn reports whether the frame has a column with the given name.
func (f *Frame) HasColumn(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.columns[name]
	return ok
}

// Column returns the named column as a series sharing the frame index.
func (f *Frame) Column(name string) (Series, bool) {
	if f == nil {
		return Series{}, false
	}
	values, ok := f.columns[name]
	if !ok {
		return Series{}, false
	}
	return Series{Name: name, Values: slices.Clone(values), Index: f.Index()}, true
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return f.rows
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Shape returns the row and column counts.
func (f *Frame) Shape() (rows, cols int) {
	return f.Len(), f.Width()
}

// Empty reports whether the frame has no rows or no columns.
func (f *Frame) Empty() bool {
	return f.Len() == 0 || f.Width() == 0
}

// Row returns the cells of row i in column order.
func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.names))
	for c, name := range f.names {
		row[c] = f.columns[name][i]
	}
	return row
}

// Rows returns every row in order.
func (f *Frame) Rows() [][]any {
	rows := make([][]any, f.Len())
	for i := range rows {
		rows[i] = f.Row(i)
	}
	return rows
}

// Records returns every row as a column-name keyed map.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, f.Len())
	for i := range out {
		rec := make(map[string]any, len(f.names))
		for _, name := range f.names {
			rec[name] = f.columns[name][i]
		}
		out[i] = rec
	}
	return out
}

// Clone returns a deep copy of the frame structure. Cell values are shared.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := &Frame{
		names:   slices.Clone(f.names),
		columns: make(map[string][]any, len(f.columns)),
		rows:    f.rows,
		index:   Index{Name: f.index.Name, Labels: slices.Clone(f.index.Labels)},
	}
	for name, values := range f.columns {
		c.columns[name] = slices.Clone(values)
	}
	return c
}

// Equal reports whether both frames have the same columns in the same order,
// the same cells and the same index. A nil frame equals an empty one.
func (f *Frame) Equal(o *Frame) bool {
	if f.Len() != o.Len() || !slices.Equal(f.Columns(), o.Columns()) {
		return false
	}
	if f.Width() == 0 && f.Len() == 0 {
		return true
	}
	fi, oi := f.Index(), o.Index()
	if fi.Name != oi.Name || !reflect.DeepEqual(fi.Labels, oi.Labels) {
		return false
	}
	for _, name := range f.names {
		if !reflect.DeepEqual(f.columns[name], o.columns[name]) {
			return false
		}
	}
	return true
}

// String summarizes the frame shape.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%d rows x %d cols)", f.Len(), f.Width())
}

func normalizeAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = scalar.Normalize(v)
	}
	return out
}
