package flatten

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

func mustFrame(t *testing.T, names []string, columns ...[]any) *frame.Frame {
	t.Helper()
	f, err := frame.FromColumns(names, columns...)
	require.NoError(t, err)
	return f
}

func TestFlattenScalarsAndSequences(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []any
	}{
		{
			name: "mixed nesting keeps order",
			req:  Request{Args: []any{1, 2, 3, []int{4, 5, 6}, [3]int{4, 4, 4}}},
			want: []any{1, 2, 3, 4, 5, 6, 4, 4, 4},
		},
		{
			name: "distinct and sorted",
			req:  Request{Args: []any{1, 2, 3, []int{4, 5, 6}, [3]int{4, 4, 4}}, Distinct: true, Sort: true},
			want: []any{1, 2, 3, 4, 5, 6},
		},
		{
			name: "distinct keeps first occurrence",
			req:  Request{Args: []any{[]int{3, 1, 2, 3, 3, 2, 1}}, Distinct: true},
			want: []any{3, 1, 2},
		},
		{
			name: "strings are scalars",
			req:  Request{Args: []any{"a", "b", []string{"c", "d", "e"}, []string{}, []string{"e"}}, Distinct: true},
			want: []any{"a", "b", "c", "d", "e"},
		},
		{
			name: "false is a value",
			req:  Request{Args: []any{false}},
			want: []any{false},
		},
		{
			name: "nil skipped by default",
			req:  Request{Args: []any{[]any{1, 2}, nil}},
			want: []any{1, 2},
		},
		{
			name: "nil kept when allowed",
			req:  Request{Args: []any{[]any{1, 2}, nil}, AllowNull: true},
			want: []any{1, 2, nil},
		},
		{
			name: "pointers are dereferenced",
			req:  Request{Args: []any{ptr(7), &[]int{8}}},
			want: []any{7, 8},
		},
		{
			name: "transform applies to scalars",
			req: Request{
				Args:      []any{"a,b", "c"},
				Transform: func(v any) any { return strings.Split(v.(string), ",") },
			},
			want: []any{"a", "b", "c"},
		},
		{
			name: "no args",
			req:  Request{},
			want: []any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlattenTable(t *testing.T) {
	ab := mustFrame(t, []string{"a", "b"}, []any{1, 2, 3}, []any{5, 3, 1})

	indexed := mustFrame(t, []string{"a"}, []any{1, 2, 3})
	require.NoError(t, indexed.SetIndex(frame.Index{Name: "key", Labels: []any{"a", "b", "c"}}))

	tests := []struct {
		name string
		req  Request
		want []any
	}{
		{"field extraction sorted", Request{Args: []any{ab}, Field: "b", Sort: true}, []any{int64(1), int64(3), int64(5)}},
		{"keys mode walks index", Request{Args: []any{indexed}}, []any{"a", "b", "c"}},
		{"values mode without field is empty", Request{Args: []any{indexed}, Mode: Values}, []any{}},
		{"field picks column", Request{Args: []any{indexed}, Field: "a"}, []any{int64(1), int64(2), int64(3)}},
		{"field picks index", Request{Args: []any{indexed}, Field: "key"}, []any{"a", "b", "c"}},
		{"missing field skipped", Request{Args: []any{ab, []int{9}}, Field: "zzz"}, []any{9}},
		{"frame value", Request{Args: []any{*ab}, Field: "a"}, []any{int64(1), int64(2), int64(3)}},
		{"range index", Request{Args: []any{ab}}, []any{int64(0), int64(1), int64(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("strict missing field", func(t *testing.T) {
		_, err := Flatten(Request{Args: []any{ab}, Field: "zzz", Strict: true})
		assert.ErrorIs(t, err, types.ErrFieldNotFound)
	})
}

func TestFlattenColumn(t *testing.T) {
	s := frame.NewSeries("v", 1, 2, 3)
	s.Index = frame.Index{Name: "k", Labels: []any{"a", "b", "a"}}

	tests := []struct {
		name string
		req  Request
		want []any
	}{
		{"keys mode walks index", Request{Args: []any{s}}, []any{"a", "b", "a"}},
		{"values mode walks values", Request{Args: []any{s}, Mode: Values}, []any{int64(1), int64(2), int64(3)}},
		{"field matches name", Request{Args: []any{s}, Field: "v"}, []any{int64(1), int64(2), int64(3)}},
		{"field matches index", Request{Args: []any{s}, Field: "k", Mode: Values}, []any{"a", "b", "a"}},
		{"missing field falls back to values", Request{Args: []any{s}, Field: "zzz"}, []any{int64(1), int64(2), int64(3)}},
		{"pointer series", Request{Args: []any{&s}, Mode: Values, Distinct: true}, []any{int64(1), int64(2), int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("strict missing field", func(t *testing.T) {
		_, err := Flatten(Request{Args: []any{s}, Field: "zzz", Strict: true})
		assert.ErrorIs(t, err, types.ErrFieldNotFound)
	})
}

func TestFlattenMapping(t *testing.T) {
	m := map[string]any{"b": 2, "a": 1, "c": []int{3, 4}}

	tests := []struct {
		name string
		req  Request
		want []any
	}{
		{"keys in natural order", Request{Args: []any{m}}, []any{"a", "b", "c"}},
		{"values in key order", Request{Args: []any{m}, Mode: Values}, []any{1, 2, 3, 4}},
		{"field selects value", Request{Args: []any{m}, Field: "c"}, []any{3, 4}},
		{"field applies to each mapping", Request{Args: []any{[]map[string]int{{"id": 1}, {"id": 2}}}, Field: "id"}, []any{1, 2}},
		{"missing field walks keys", Request{Args: []any{map[string]int{"x": 1}}, Field: "id"}, []any{"x"}},
		{"int keys sorted", Request{Args: []any{map[int]string{3: "c", 1: "a"}}}, []any{1, 3}},
		{"field in interface keyed mapping", Request{Args: []any{map[any]any{"b": 1, "a": 2}}, Field: "b"}, []any{1}},
		{"field in mixed key mapping", Request{Args: []any{map[any]any{"b": []int{5, 6}, 1: "x"}}, Field: "b"}, []any{5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("strict missing key", func(t *testing.T) {
		_, err := Flatten(Request{Args: []any{m}, Field: "zzz", Strict: true})
		assert.ErrorIs(t, err, types.ErrFieldNotFound)
	})
	t.Run("strict present key in interface keyed mapping", func(t *testing.T) {
		got, err := Flatten(Request{Args: []any{map[any]any{"b": 1, "a": 2}}, Field: "b", Strict: true})
		require.NoError(t, err)
		assert.Equal(t, []any{1}, got)
	})
}

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestFlattenRecordField(t *testing.T) {
	people := []person{{"ann", 31}, {"bob", 27}}
	got, err := Flatten(Request{Args: []any{people}, Field: "age", Sort: true})
	require.NoError(t, err)
	assert.Equal(t, []any{27, 31}, got)

	got, err = Flatten(Request{Args: []any{people}})
	require.NoError(t, err)
	assert.Equal(t, []any{people[0], people[1]}, got)
}

func TestFlattenEmptyResult(t *testing.T) {
	_, err := Flatten(Request{Args: []any{[]int{}, nil}, ErrorIfEmpty: true})
	assert.True(t, errors.Is(err, types.ErrEmptyResult))

	got, err := Flatten(Request{Args: []any{[]int{1}}, ErrorIfEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, []any{1}, got)
}

type node struct {
	Next *node `json:"next"`
}

type selfRef *selfRef

func TestFlattenCycles(t *testing.T) {
	t.Run("self containing slice", func(t *testing.T) {
		s := []any{1, nil}
		s[1] = s
		_, err := Flatten(Request{Args: []any{s}})
		assert.ErrorIs(t, err, types.ErrCyclicInput)
	})
	t.Run("self containing map", func(t *testing.T) {
		m := map[string]any{"a": 1}
		m["self"] = m
		_, err := Flatten(Request{Args: []any{m}, Mode: Values})
		assert.ErrorIs(t, err, types.ErrCyclicInput)
	})
	t.Run("record field cycle", func(t *testing.T) {
		n := &node{}
		n.Next = n
		_, err := Flatten(Request{Args: []any{n}, Field: "next"})
		assert.ErrorIs(t, err, types.ErrCyclicInput)
	})
	t.Run("pointer to itself", func(t *testing.T) {
		var p selfRef
		p = &p
		_, err := Flatten(Request{Args: []any{p}})
		assert.ErrorIs(t, err, types.ErrCyclicInput)
	})
	t.Run("shared reference is not a cycle", func(t *testing.T) {
		shared := []any{1, 2}
		got, err := Flatten(Request{Args: []any{[]any{shared, shared}}})
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2, 1, 2}, got)
	})
}

func TestDistinctIdempotent(t *testing.T) {
	in := []any{3, "a", 3, nil, "a", 1.5, nil}
	once := Distinct(in)
	assert.Equal(t, once, Distinct(once))
	assert.Equal(t, []any{3, "a", nil, 1.5}, once)
}

func TestDistinctAcrossNumericTypes(t *testing.T) {
	got, err := Flatten(Request{
		Args:     []any{[]int{1, 2}, frame.NewSeries("v", 1, 2), 2.0, uint8(1)},
		Mode:     Values,
		Distinct: true,
		Sort:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	assert.Equal(t, []any{1.5, 1.0}, Distinct([]any{1.5, 1.0, int64(1), 1}))
}

func TestSortedOutputIsNonDecreasing(t *testing.T) {
	got, err := Flatten(Request{Args: []any{[]float64{3.5, -1, 2}, 10, []int{7, 0}}, Sort: true})
	require.NoError(t, err)
	assert.Equal(t, []any{-1.0, 0, 2.0, 3.5, 7, 10}, got)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("values")
	require.NoError(t, err)
	assert.Equal(t, Values, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Keys, m)

	_, err = ParseMode("both")
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
