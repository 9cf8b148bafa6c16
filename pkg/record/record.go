// Package record describes the fields of record types: plain Go structs whose
// exported fields are persisted by the store.
//
// A field is table-typed when its declared type is *frame.Frame; every other
// field is scalar-typed, nested structs included. Descriptors are computed
// from the type alone and cached, so they never depend on a live instance.
package record

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// Kind separates fields that live in the metadata document from fields that
// are spilled to their own tabular artifact.
type Kind int

const (
	KindScalar Kind = iota
	KindTable
)

func (k Kind) String() string {
	if k == KindTable {
		return "table"
	}
	return "scalar"
}

// TableType is the declared type that makes a field table-typed.
var TableType = reflect.TypeOf((*frame.Frame)(nil))

// Field describes one declared field of a record type.
type Field struct {
	Name   string // document key: json tag name or Go field name
	GoName string
	Type   reflect.Type
	Kind   Kind
	index  []int
}

// Get returns the field of the struct value rv. rv must be the described
// struct type (not a pointer). A nil embedded pointer yields the invalid Value.
func (f Field) Get(rv reflect.Value) reflect.Value {
	v, err := rv.FieldByIndexErr(f.index)
	if err != nil {
		return reflect.Value{}
	}
	return v
}

// Set assigns x to the field of the addressable struct value rv, allocating
// nil embedded pointers on the way.
func (f Field) Set(rv reflect.Value, x reflect.Value) {
	v := rv
	for i, idx := range f.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(idx)
	}
	v.Set(x)
}

// Descriptor lists the fields of one record type in declaration order.
type Descriptor struct {
	Type   reflect.Type
	Fields []Field
	byName map[string]int
}

// Field returns the descriptor of the named field.
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

// TableFields returns the table-typed fields in declaration order.
func (d *Descriptor) TableFields() []Field {
	return d.ofKind(KindTable)
}

// ScalarFields returns the scalar-typed fields in declaration order.
func (d *Descriptor) ScalarFields() []Field {
	return d.ofKind(KindScalar)
}

// HasTables reports whether any field is table-typed.
func (d *Descriptor) HasTables() bool {
	for _, f := range d.Fields {
		if f.Kind == KindTable {
			return true
		}
	}
	return false
}

func (d *Descriptor) ofKind(k Kind) []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

var cache sync.Map // reflect.Type -> *Descriptor

// Describe returns the descriptor of a struct type or pointer-to-struct type.
func Describe(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("nil type: %w", types.ErrNotRecord)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: %w", t, types.ErrNotRecord)
	}
	if d, ok := cache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	d := build(t)
	actual, _ := cache.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

// DescribeOf returns the descriptor of T.
func DescribeOf[T any]() (*Descriptor, error) {
	return Describe(reflect.TypeFor[T]())
}

// DescribeValue returns the descriptor of v's dynamic type.
func DescribeValue(v any) (*Descriptor, error) {
	return Describe(reflect.TypeOf(v))
}

func build(t reflect.Type) *Descriptor {
	d := &Descriptor{Type: t, byName: make(map[string]int)}
	collect(d, t, nil, map[reflect.Type]bool{t: true})
	return d
}

// collect walks the struct fields, promoting embedded structs the way
// encoding/json does. Shallower fields win name collisions. path holds the
// struct types being expanded, so a type that embeds itself through a
// pointer is expanded once.
func collect(d *Descriptor, t reflect.Type, parent []int, path map[reflect.Type]bool) {
	var embedded []reflect.StructField
	for i := range t.NumField() {
		sf := t.Field(i)
		name, skip := fieldName(sf)
		if skip {
			continue
		}
		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				if !sf.IsExported() {
					continue
				}
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				embedded = append(embedded, sf)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, taken := d.byName[name]; taken {
			continue
		}
		kind := KindScalar
		if sf.Type == TableType {
			kind = KindTable
		}
		d.byName[name] = len(d.Fields)
		d.Fields = append(d.Fields, Field{
			Name:   name,
			GoName: sf.Name,
			Type:   sf.Type,
			Kind:   kind,
			index:  append(append([]int(nil), parent...), i),
		})
	}
	for _, sf := range embedded {
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if path[ft] {
			continue
		}
		path[ft] = true
		collect(d, ft, append(append([]int(nil), parent...), sf.Index...), path)
		delete(path, ft)
	}
}

// fieldName reads the json tag. It returns skip for "-" and unexported
// non-embedded fields.
func fieldName(sf reflect.StructField) (name string, skip bool) {
	if !sf.IsExported() && !sf.Anonymous {
		return "", true
	}
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	return name, false
}
