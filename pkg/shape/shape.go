// Package shape classifies input values for the flatten engine.
package shape

import (
	"reflect"

	"github.com/mesh-intelligence/prelude/pkg/frame"
)

// Tag is the shape of one input value.
type Tag int

const (
	Scalar Tag = iota
	Table
	Column
	Mapping
	Iterable
	Null
)

func (t Tag) String() string {
	switch t {
	case Table:
		return "table"
	case Column:
		return "column"
	case Mapping:
		return "mapping"
	case Iterable:
		return "iterable"
	case Null:
		return "null"
	default:
		return "scalar"
	}
}

// Sequence is implemented by ordered containers that are neither slices nor
// arrays, such as frame indexes and collection sets.
type Sequence interface {
	Elements() []any
}

// Classify returns the shape of v. It inspects only v itself (plus one
// pointer dereference) and never traverses elements.
//
// Priority: table, column, mapping, iterable, null, scalar. Strings are
// scalars even though they can be ranged over. Nil maps and slices keep their
// container shape and are simply empty; only untyped nil and nil pointers or
// interfaces are Null. A pointer to a pointer is a Scalar.
func Classify(v any) Tag {
	return classify(v, true)
}

func classify(v any, deref bool) Tag {
	switch x := v.(type) {
	case nil:
		return Null
	case *frame.Frame:
		if x == nil {
			return Null
		}
		return Table
	case frame.Frame:
		return Table
	case frame.Series:
		return Column
	case *frame.Series:
		if x == nil {
			return Null
		}
		return Column
	case Sequence:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null
		}
		return Iterable
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return Mapping
	case reflect.Slice, reflect.Array:
		return Iterable
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		if !deref {
			return Scalar
		}
		return classify(rv.Elem().Interface(), false)
	}
	return Scalar
}
