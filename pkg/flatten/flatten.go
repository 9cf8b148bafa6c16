// Package flatten reduces arbitrarily nested inputs (frames, series, maps,
// slices and scalars) to one ordered sequence of scalar values, optionally
// extracting a named field and choosing between keys and values.
package flatten

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/record"
	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/shape"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// Mode selects what a table, column or mapping contributes when no field
// picks a specific part of it.
type Mode int

const (
	// Keys walks row indexes and mapping keys.
	Keys Mode = iota
	// Values walks column values and mapping values.
	Values
)

func (m Mode) String() string {
	if m == Values {
		return "values"
	}
	return "keys"
}

// ParseMode parses "keys" or "values".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "keys":
		return Keys, nil
	case "values":
		return Values, nil
	}
	return Keys, fmt.Errorf("unknown mode %q", s)
}

// Request describes one flatten call.
type Request struct {
	Args  []any
	Field string
	Mode  Mode

	Distinct     bool
	Sort         bool
	ErrorIfEmpty bool
	// Strict turns a field that a table, column or mapping lacks into
	// ErrFieldNotFound instead of skipping it.
	Strict    bool
	AllowNull bool

	// Transform, when set, maps each scalar before it is appended. Its result
	// is flattened again without the transform.
	Transform func(any) any
}

// Flatten runs the request and returns the flat result.
func Flatten(req Request) ([]any, error) {
	w := &walker{req: req, active: make(map[visit]bool)}
	for _, arg := range req.Args {
		if err := w.walk(arg, req.Transform); err != nil {
			return nil, err
		}
	}
	out := w.out
	if req.Distinct {
		out = Distinct(out)
	}
	if req.Sort {
		slices.SortStableFunc(out, scalar.Compare)
	}
	if len(out) == 0 && req.ErrorIfEmpty {
		return nil, types.ErrEmptyResult
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// Distinct removes repeats from values, keeping the first occurrence.
func Distinct(values []any) []any {
	seen := make(map[any]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		k := scalar.Key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// visit identifies a container on the active recursion path.
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type walker struct {
	req    Request
	out    []any
	active map[visit]bool
}

func (w *walker) walk(v any, transform func(any) any) error {
	switch shape.Classify(v) {
	case shape.Null:
		if w.req.AllowNull {
			w.out = append(w.out, nil)
		}
		return nil
	case shape.Table:
		return w.table(asFrame(v), transform)
	case shape.Column:
		return w.column(asSeries(v), transform)
	case shape.Mapping:
		return w.guard(v, func(rv reflect.Value) error { return w.mapping(rv, transform) })
	case shape.Iterable:
		return w.guard(v, func(rv reflect.Value) error { return w.iterable(v, rv, transform) })
	}
	return w.guard(v, func(rv reflect.Value) error { return w.scalar(rv, transform) })
}

func (w *walker) table(f *frame.Frame, transform func(any) any) error {
	field := w.req.Field
	switch {
	case field == "":
		if w.req.Mode == Keys {
			return w.walk(f.Index(), transform)
		}
		return nil
	case f.HasColumn(field):
		col, _ := f.Column(field)
		return w.walk(col, transform)
	case f.Index().Name == field:
		return w.walk(f.Index(), transform)
	case w.req.Strict:
		return fmt.Errorf("column %q not in frame %v: %w", field, f.Columns(), types.ErrFieldNotFound)
	}
	return nil
}

// column falls back to the values when a requested field matches neither the
// series name nor its index name. Tables skip in the same situation; the
// asymmetry is kept for compatibility.
func (w *walker) column(s frame.Series, transform func(any) any) error {
	field := w.req.Field
	switch {
	case field == "":
		if w.req.Mode == Keys {
			return w.walk(s.Keys(), transform)
		}
		return w.walk(s.Values, transform)
	case s.Name == field:
		return w.walk(s.Values, transform)
	case s.Index.Name == field:
		return w.walk(s.Keys(), transform)
	case w.req.Strict:
		return fmt.Errorf("neither series %q nor its index is named %q: %w", s.Name, field, types.ErrFieldNotFound)
	}
	return w.walk(s.Values, transform)
}

func (w *walker) mapping(rv reflect.Value, transform func(any) any) error {
	field := w.req.Field
	if key, ok := fieldKey(rv.Type().Key(), field); ok {
		if val := rv.MapIndex(key); val.IsValid() {
			return w.walk(val.Interface(), transform)
		}
	}
	if field != "" && w.req.Strict {
		return fmt.Errorf("key %q not in mapping: %w", field, types.ErrFieldNotFound)
	}
	keys := rv.MapKeys()
	slices.SortStableFunc(keys, func(a, b reflect.Value) int {
		return scalar.Compare(a.Interface(), b.Interface())
	})
	for _, k := range keys {
		next := k.Interface()
		if w.req.Mode == Values {
			next = rv.MapIndex(k).Interface()
		}
		if err := w.walk(next, transform); err != nil {
			return err
		}
	}
	return nil
}

// fieldKey converts field to a lookup key for maps keyed by kt. Maps keyed by
// neither a string kind nor an interface cannot hold the field.
func fieldKey(kt reflect.Type, field string) (reflect.Value, bool) {
	if field == "" {
		return reflect.Value{}, false
	}
	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(field).Convert(kt), true
	case reflect.Interface:
		key := reflect.ValueOf(field)
		if !key.Type().AssignableTo(kt) {
			return reflect.Value{}, false
		}
		return key, true
	}
	return reflect.Value{}, false
}

func (w *walker) iterable(v any, rv reflect.Value, transform func(any) any) error {
	if seq, ok := v.(shape.Sequence); ok {
		for _, e := range seq.Elements() {
			if err := w.walk(e, transform); err != nil {
				return err
			}
		}
		return nil
	}
	for i := range rv.Len() {
		if err := w.walk(rv.Index(i).Interface(), transform); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) scalar(rv reflect.Value, transform func(any) any) error {
	if w.req.Field != "" && rv.Kind() == reflect.Struct {
		if d, err := record.Describe(rv.Type()); err == nil {
			if f, ok := d.Field(w.req.Field); ok {
				if fv := f.Get(rv); fv.IsValid() {
					return w.walk(fv.Interface(), transform)
				}
				return w.walk(nil, transform)
			}
		}
	}
	if transform != nil {
		return w.walk(transform(rv.Interface()), nil)
	}
	w.out = append(w.out, rv.Interface())
	return nil
}

// guard dereferences v and tracks every pointer and non-empty map or slice on
// the way, so that a value reachable from itself fails with ErrCyclicInput
// instead of recursing forever. Tracking is limited to the active path:
// shared but acyclic references are fine.
func (w *walker) guard(v any, fn func(reflect.Value) error) error {
	rv := reflect.ValueOf(v)
	var keys []visit
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.Kind() == reflect.Pointer && !rv.IsNil() {
			k := visit{typ: rv.Type(), ptr: rv.Pointer()}
			if slices.Contains(keys, k) {
				return fmt.Errorf("%s points back to itself: %w", rv.Type(), types.ErrCyclicInput)
			}
			keys = append(keys, k)
		}
		rv = rv.Elem()
	}
	if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.Len() > 0 {
		keys = append(keys, visit{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()})
	}
	for _, k := range keys {
		if w.active[k] {
			return fmt.Errorf("%s reached again while flattening it: %w", rv.Type(), types.ErrCyclicInput)
		}
	}
	for _, k := range keys {
		w.active[k] = true
	}
	defer func() {
		for _, k := range keys {
			delete(w.active, k)
		}
	}()
	return fn(rv)
}

func asFrame(v any) *frame.Frame {
	switch x := v.(type) {
	case *frame.Frame:
		return x
	case frame.Frame:
		return &x
	}
	return asFrame(reflect.ValueOf(v).Elem().Interface())
}

func asSeries(v any) frame.Series {
	switch x := v.(type) {
	case frame.Series:
		return x
	case *frame.Series:
		return *x
	}
	return asSeries(reflect.ValueOf(v).Elem().Interface())
}
