package scalar

import (
	"encoding/json"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type label string

func TestCompare(t *testing.T) {
	t0 := time.Unix(100, 0)
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"nil equals nil", nil, nil, 0},
		{"nil before bool", nil, false, -1},
		{"false before true", false, true, -1},
		{"bool before number", true, 0, -1},
		{"ints exact", int64(math.MaxInt64), int64(math.MaxInt64 - 1), 1},
		{"int and float", 2, 2.5, -1},
		{"int equals float", 3, 3.0, 0},
		{"negative int before uint", -1, uint(0), -1},
		{"uint after int", uint64(math.MaxUint64), int64(1), 1},
		{"number before string", 10, "1", -1},
		{"strings lexical", "abc", "abd", -1},
		{"named string", label("b"), "a", 1},
		{"string before time", "z", t0, -1},
		{"times", t0, t0.Add(time.Second), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestCompareSortsMixedValues(t *testing.T) {
	values := []any{"b", 3, nil, true, 1.5, "a", false}
	slices.SortStableFunc(values, Compare)
	assert.Equal(t, []any{nil, false, true, 1.5, 3, "a", "b"}, values)
}

func TestNormalize(t *testing.T) {
	n := 7
	var nilPtr *int
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", 3, int64(3)},
		{"int8", int8(-3), int64(-3)},
		{"uint16", uint16(9), int64(9)},
		{"big uint", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float32", float32(1.5), 1.5},
		{"named string", label("x"), "x"},
		{"json integer", json.Number("12"), int64(12)},
		{"json float", json.Number("1.25"), 1.25},
		{"pointer", &n, int64(7)},
		{"nil pointer", nilPtr, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []any{nil, true, false, int64(-42), 2.0, 0.125, 1e21, "hello", "with,comma"}
	for _, v := range values {
		assert.Equal(t, v, Parse(Format(v)), "value %#v", v)
	}
}

func TestFormatFloatKeepsDecimalPoint(t *testing.T) {
	assert.Equal(t, "2.0", FormatFloat(2))
	assert.Equal(t, "-0.5", FormatFloat(-0.5))
	assert.Equal(t, "1e+21", FormatFloat(1e21))
}

func TestKeyHandlesUncomparableValues(t *testing.T) {
	a := Key([]int{1, 2})
	b := Key([]int{1, 2})
	assert.Equal(t, a, b)
	assert.Equal(t, "x", Key("x"))
}

func TestKeyAgreesWithCompare(t *testing.T) {
	equal := [][]any{
		{1, int64(1), uint8(1), 1.0, float32(1), json.Number("1")},
		{-3, int8(-3), -3.0},
		{uint64(1 << 63), float64(1 << 63)},
		{"a", label("a")},
		{true, true},
	}
	for _, group := range equal {
		for _, v := range group[1:] {
			assert.Equal(t, 0, Compare(group[0], v), "%#v and %#v", group[0], v)
			assert.Equal(t, Key(group[0]), Key(v), "%#v and %#v", group[0], v)
		}
	}
	assert.NotEqual(t, Key(1), Key(1.5))
	assert.NotEqual(t, Key(1), Key("1"))
	assert.NotEqual(t, Key(true), Key(1))
	assert.NotEqual(t, Key(nil), Key(0))
}
