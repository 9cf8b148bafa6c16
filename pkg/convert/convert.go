// Package convert turns records into plain documents (maps, slices and
// scalars that encoding/json can write) and back.
//
// A Converter is an explicit value: hooks registered on one converter never
// leak into another. Frame-typed values pass through Unstructure untouched so
// the store can split them out; Structure deep-copies them, and also accepts
// the document form a frame marshals to when it sits inside a nested record.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/record"
	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// EncodeFunc maps a Go value of the registered type onto a document value.
type EncodeFunc func(v any) (any, error)

// DecodeFunc maps a document value back onto the registered type.
type DecodeFunc func(raw any) (any, error)

type hook struct {
	encode EncodeFunc
	decode DecodeFunc
}

// Converter unstructures records to documents and structures them back.
type Converter struct {
	hooks map[reflect.Type]hook
}

// NewBare returns a converter with no hooks registered.
func NewBare() *Converter {
	return &Converter{hooks: make(map[reflect.Type]hook)}
}

// New returns a converter with the time.Time hook registered.
func New() *Converter {
	c := NewBare()
	RegisterTime(c)
	return c
}

// Register installs custom encoding for values of type t. Either function may
// be nil, in which case that direction uses the generic rules.
func (c *Converter) Register(t reflect.Type, encode EncodeFunc, decode DecodeFunc) {
	c.hooks[t] = hook{encode: encode, decode: decode}
}

// RegisterHook is the typed form of Register.
func RegisterHook[T any](c *Converter, encode func(T) (any, error), decode func(any) (T, error)) {
	var enc EncodeFunc
	if encode != nil {
		enc = func(v any) (any, error) { return encode(v.(T)) }
	}
	var dec DecodeFunc
	if decode != nil {
		dec = func(raw any) (any, error) { return decode(raw) }
	}
	c.Register(reflect.TypeFor[T](), enc, dec)
}

// Unstructure converts a record (struct or pointer to struct) to a document
// keyed by field name.
func (c *Converter) Unstructure(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil %s: %w", rv.Type(), types.ErrNotRecord)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%T: %w", v, types.ErrNotRecord)
	}
	return c.unstructure(rv)
}

func (c *Converter) unstructure(rv reflect.Value) (map[string]any, error) {
	d, err := record.Describe(rv.Type())
	if err != nil {
		return nil, err
	}
	doc := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		fv := f.Get(rv)
		if !fv.IsValid() {
			doc[f.Name] = nil
			continue
		}
		enc, err := c.encode(fv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		doc[f.Name] = enc
	}
	return doc, nil
}

// Encode converts a single value to its document form.
func (c *Converter) Encode(v any) (any, error) {
	return c.encode(reflect.ValueOf(v))
}

func (c *Converter) encode(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}
	t := rv.Type()
	if h, ok := c.hooks[t]; ok && h.encode != nil {
		out, err := h.encode(rv.Interface())
		if err != nil {
			return nil, fmt.Errorf("encode %s: %v: %w", t, err, types.ErrSerialization)
		}
		return out, nil
	}
	if t == record.TableType {
		if rv.IsNil() {
			return nil, nil
		}
		return rv.Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return c.encode(rv.Elem())
	case reflect.Struct:
		if opaque(t) {
			return nil, fmt.Errorf("no hook registered for %s: %w", t, types.ErrSerialization)
		}
		return c.unstructure(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := mapKey(iter.Key())
			if err != nil {
				return nil, err
			}
			val, err := c.encode(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = val
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			val, err := c.encode(rv.Index(i))
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = val
		}
		return out, nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return scalar.Normalize(rv.Interface()), nil
	}
	return nil, fmt.Errorf("unsupported kind %s (%s): %w", rv.Kind(), t, types.ErrSerialization)
}

// opaque reports whether a struct type has fields but none of them exported,
// like time.Time. Such values would silently encode as an empty document.
func opaque(t reflect.Type) bool {
	if t.NumField() == 0 {
		return false
	}
	d, err := record.Describe(t)
	return err == nil && len(d.Fields) == 0
}

func mapKey(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("map key kind %s: %w", k.Kind(), types.ErrSerialization)
}

// Structure fills the record pointed to by out from doc. Keys missing from
// the document leave the field untouched; unknown keys are ignored.
func (c *Converter) Structure(doc map[string]any, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("structure into %T: %w", out, types.ErrNotRecord)
	}
	return c.structure(doc, rv.Elem())
}

func (c *Converter) structure(doc map[string]any, rv reflect.Value) error {
	d, err := record.Describe(rv.Type())
	if err != nil {
		return err
	}
	for _, f := range d.Fields {
		raw, ok := doc[f.Name]
		if !ok {
			continue
		}
		val, err := c.decode(raw, f.Type)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		f.Set(rv, val)
	}
	return nil
}

// Decode converts a document value to a value of type t.
func (c *Converter) Decode(raw any, t reflect.Type) (reflect.Value, error) {
	return c.decode(raw, t)
}

func (c *Converter) decode(raw any, t reflect.Type) (reflect.Value, error) {
	if h, ok := c.hooks[t]; ok && h.decode != nil {
		out, err := h.decode(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("decode %s: %v: %w", t, err, types.ErrSerialization)
		}
		return assign(out, t)
	}
	if t == record.TableType {
		switch f := raw.(type) {
		case nil:
			return reflect.Zero(t), nil
		case *frame.Frame:
			return reflect.ValueOf(f.Clone()), nil
		case frame.Frame:
			return reflect.ValueOf(f.Clone()), nil
		case map[string]any:
			doc, err := frame.FromDocument(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(doc), nil
		}
		return reflect.Value{}, mismatch(raw, t)
	}
	if raw == nil {
		return reflect.Zero(t), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := c.decode(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Interface:
		return assign(plain(raw), t)
	case reflect.Struct:
		if opaque(t) {
			return reflect.Value{}, fmt.Errorf("no hook registered for %s: %w", t, types.ErrSerialization)
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		v := reflect.New(t).Elem()
		if err := c.structure(m, v); err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	case reflect.Map:
		return c.decodeMap(raw, t)
	case reflect.Slice, reflect.Array:
		return c.decodeList(raw, t)
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		return reflect.ValueOf(b).Convert(t), nil
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		return reflect.ValueOf(s).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%v into %s: %v: %w", raw, t, err, types.ErrSerialization)
		}
		v := reflect.New(t).Elem()
		if v.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s: %w", n, t, types.ErrSerialization)
		}
		v.SetInt(n)
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toUint(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%v into %s: %v: %w", raw, t, err, types.ErrSerialization)
		}
		v := reflect.New(t).Elem()
		if v.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s: %w", n, t, types.ErrSerialization)
		}
		v.SetUint(n)
		return v, nil
	case reflect.Float32, reflect.Float64:
		if _, ok := raw.(bool); ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%v into %s: %v: %w", raw, t, err, types.ErrSerialization)
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v, nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported kind %s (%s): %w", t.Kind(), t, types.ErrSerialization)
}

func (c *Converter) decodeMap(raw any, t reflect.Type) (reflect.Value, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, mismatch(raw, t)
	}
	out := reflect.MakeMapWithSize(t, len(m))
	for k, v := range m {
		key, err := parseKey(k, t.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := c.decode(v, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		out.SetMapIndex(key, val)
	}
	return out, nil
}

func (c *Converter) decodeList(raw any, t reflect.Type) (reflect.Value, error) {
	items, ok := raw.([]any)
	if !ok {
		return reflect.Value{}, mismatch(raw, t)
	}
	var out reflect.Value
	if t.Kind() == reflect.Array {
		if len(items) != t.Len() {
			return reflect.Value{}, fmt.Errorf("%d items into %s: %w", len(items), t, types.ErrSerialization)
		}
		out = reflect.New(t).Elem()
	} else {
		out = reflect.MakeSlice(t, len(items), len(items))
	}
	for i, item := range items {
		val, err := c.decode(item, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		out.Index(i).Set(val)
	}
	return out, nil
}

func parseKey(k string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(k)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil || v.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("map key %q into %s: %w", k, t, types.ErrSerialization)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(k, 10, 64)
		if err != nil || v.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("map key %q into %s: %w", k, t, types.ErrSerialization)
		}
		v.SetUint(n)
	default:
		return reflect.Value{}, fmt.Errorf("map key kind %s: %w", t.Kind(), types.ErrSerialization)
	}
	return v, nil
}

// toInt rejects booleans and fractional numbers, which cast would coerce.
func toInt(raw any) (int64, error) {
	if err := integral(raw); err != nil {
		return 0, err
	}
	return cast.ToInt64E(raw)
}

func toUint(raw any) (uint64, error) {
	if err := integral(raw); err != nil {
		return 0, err
	}
	return cast.ToUint64E(raw)
}

func integral(raw any) error {
	switch x := raw.(type) {
	case bool:
		return fmt.Errorf("boolean is not a number")
	case float32, float64, json.Number:
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return err
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("%v has a fractional part", raw)
		}
	}
	return nil
}

// plain rewrites json.Number leaves to int64 or float64 so that interface
// fields hold the same values whether the document came from a file or from
// Unstructure.
func plain(raw any) any {
	switch x := raw.(type) {
	case json.Number:
		return scalar.Normalize(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = plain(v)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = plain(v)
		}
		return out
	}
	return raw
}

// assign converts a hook or interface result to a value of type t.
func assign(out any, t reflect.Type) (reflect.Value, error) {
	if out == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(out)
	switch {
	case v.Type().AssignableTo(t):
		r := reflect.New(t).Elem()
		r.Set(v)
		return r, nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.Interface:
		return v.Convert(t), nil
	}
	return reflect.Value{}, mismatch(out, t)
}

func mismatch(raw any, t reflect.Type) error {
	return fmt.Errorf("cannot decode %T into %s: %w", raw, t, types.ErrSerialization)
}
