// Package scalar implements the natural ordering, normalization and text
// encoding of the leaf values that the flatten engine emits and frames store.
package scalar

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// rank orders the scalar families relative to each other.
type rank int

const (
	rankNull rank = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankOther
)

var timeType = reflect.TypeOf(time.Time{})

func rankOf(v any) rank {
	if v == nil {
		return rankNull
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rankBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return rankNumber
	case reflect.String:
		return rankString
	}
	if rv.Type() == timeType {
		return rankTime
	}
	return rankOther
}

// Compare orders two scalars: nil < bool < numbers < strings < times < other.
// json.Number orders as the number it holds.
// Integers compare exactly; mixed integer and float operands compare as float64.
// Values outside the known families compare by their formatted text.
func Compare(a, b any) int {
	a, b = fromJSON(a), fromJSON(b)
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNull:
		return 0
	case rankBool:
		x, y := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return compareNumbers(reflect.ValueOf(a), reflect.ValueOf(b))
	case rankString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// fromJSON parses json.Number so that it orders as the number it holds.
func fromJSON(v any) any {
	if n, ok := v.(json.Number); ok {
		return parseNumber(string(n))
	}
	return v
}

func compareNumbers(a, b reflect.Value) int {
	switch {
	case a.CanInt() && b.CanInt():
		return cmp.Compare(a.Int(), b.Int())
	case a.CanUint() && b.CanUint():
		return cmp.Compare(a.Uint(), b.Uint())
	case a.CanInt() && b.CanUint():
		if a.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.Int()), b.Uint())
	case a.CanUint() && b.CanInt():
		return -compareNumbers(b, a)
	}
	return cmp.Compare(toFloat(a), toFloat(b))
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// Less reports whether a sorts before b.
func Less(a, b any) bool {
	return Compare(a, b) < 0
}

// Normalize maps a scalar onto the canonical representation frames store:
// signed and unsigned integers become int64 (uint64 when out of range),
// floats become float64, string and bool kinds lose their named type,
// json.Number is parsed and nil pointers become nil.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	if n, ok := v.(json.Number); ok {
		return parseNumber(string(n))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return u
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	}
	return v
}

// Key returns a value usable as a map key that identifies v consistently
// with Compare: numbers that compare equal share a key whatever their Go
// type, and named string and bool types key as their underlying value.
// Other comparable values are their own key; anything else is keyed by its
// Go-syntax representation.
func Key(v any) any {
	if v == nil {
		return nil
	}
	switch rankOf(v) {
	case rankBool, rankNumber, rankString:
		return numberKey(Normalize(v))
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%#v", v, v)
}

// numberKey folds integral floats onto int64 or uint64 so that 1, int64(1)
// and 1.0 collide.
func numberKey(n any) any {
	f, ok := n.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return n
	}
	switch {
	case f >= -(1<<63) && f < 1<<63:
		return int64(f)
	case f >= 0 && f < 1<<64:
		return uint64(f)
	}
	return n
}

// FormatFloat renders f so that it always reads back as a float: integral
// values keep a trailing ".0".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

// Format renders a normalized scalar as text. Nil renders as the empty string.
func Format(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return FormatFloat(x)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// Parse infers a scalar from text the way Format writes it: empty text is
// nil, then integers, floats and booleans are tried in that order, and
// anything else stays a string.
func Parse(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	return s
}

func parseNumber(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
