package frame

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// Document keys of a frame embedded in a JSON document.
const (
	DocColumns = "columns"
	DocRows    = "rows"
	DocIndex   = "index"
)

type document struct {
	Columns []string  `json:"columns"`
	Rows    [][]any   `json:"rows"`
	Index   *docIndex `json:"index,omitempty"`
}

type docIndex struct {
	Name   string `json:"name,omitempty"`
	Labels []any  `json:"labels,omitempty"`
}

// MarshalJSON writes the frame as {"columns": [...], "rows": [[...]]}, plus
// an "index" object when the frame has a named or labelled index. Integral
// floats keep their decimal point.
func (f *Frame) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	doc := document{Columns: f.Columns(), Rows: make([][]any, f.Len())}
	if doc.Columns == nil {
		doc.Columns = []string{}
	}
	for i := range doc.Rows {
		doc.Rows[i] = jsonCells(f.Row(i))
	}
	if f.index.Name != "" || f.index.Labels != nil {
		doc.Index = &docIndex{Name: f.index.Name, Labels: jsonCells(f.index.Labels)}
	}
	return json.Marshal(doc)
}

func jsonCells(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if x, ok := v.(float64); ok {
			out[i] = json.Number(scalar.FormatFloat(x))
			continue
		}
		out[i] = v
	}
	return out
}

// FromDocument rebuilds a frame from the map form MarshalJSON writes, as
// decoded by encoding/json into map[string]any.
func FromDocument(m map[string]any) (*Frame, error) {
	rawCols, ok := m[DocColumns].([]any)
	if !ok {
		return nil, fmt.Errorf("frame document has no %q list: %w", DocColumns, types.ErrSerialization)
	}
	names := make([]string, len(rawCols))
	for i, c := range rawCols {
		name, ok := c.(string)
		if !ok {
			return nil, fmt.Errorf("frame column %d is %T, not a name: %w", i, c, types.ErrSerialization)
		}
		names[i] = name
	}

	var rows [][]any
	if raw, present := m[DocRows]; present && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("frame %q is %T, not a list: %w", DocRows, raw, types.ErrSerialization)
		}
		rows = make([][]any, len(list))
		for i, r := range list {
			row, ok := r.([]any)
			if !ok {
				return nil, fmt.Errorf("frame row %d is %T, not a list: %w", i, r, types.ErrSerialization)
			}
			rows[i] = row
		}
	}

	f, err := FromRows(names, rows...)
	if err != nil {
		return nil, fmt.Errorf("frame document: %v: %w", err, types.ErrSerialization)
	}
	if raw, present := m[DocIndex]; present && raw != nil {
		ix, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("frame %q is %T, not an object: %w", DocIndex, raw, types.ErrSerialization)
		}
		var index Index
		index.Name, _ = ix["name"].(string)
		if labels, ok := ix["labels"].([]any); ok {
			index.Labels = labels
		}
		if err := f.SetIndex(index); err != nil {
			return nil, fmt.Errorf("frame document: %v: %w", err, types.ErrSerialization)
		}
	}
	return f, nil
}
