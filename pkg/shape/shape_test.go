package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/prelude/pkg/frame"
)

type point struct{ X, Y int }

type loop *loop

func TestClassify(t *testing.T) {
	n := 3
	var nilFrame *frame.Frame
	var nilPtr *int
	var nilMap map[string]int
	var nilSlice []int
	var self loop
	self = &self
	slice := &[]int{1}
	var nilInner *int

	tests := []struct {
		name string
		in   any
		want Tag
	}{
		{"frame pointer", frame.New(), Table},
		{"frame value", *frame.New(), Table},
		{"nil frame", nilFrame, Null},
		{"series", frame.NewSeries("a", 1), Column},
		{"series pointer", &frame.Series{}, Column},
		{"index", frame.Index{}, Iterable},
		{"map", map[string]int{"a": 1}, Mapping},
		{"nil map", nilMap, Mapping},
		{"slice", []int{1}, Iterable},
		{"nil slice", nilSlice, Iterable},
		{"array", [2]string{"a", "b"}, Iterable},
		{"string", "abc", Scalar},
		{"int", 1, Scalar},
		{"bool", false, Scalar},
		{"struct", point{1, 2}, Scalar},
		{"pointer to int", &n, Scalar},
		{"pointer to slice", &[]int{1}, Iterable},
		{"nil", nil, Null},
		{"nil pointer", nilPtr, Null},
		{"pointer to pointer", &slice, Scalar},
		{"pointer to nil pointer", &nilInner, Null},
		{"pointer to itself", self, Scalar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "table", Table.String())
	assert.Equal(t, "scalar", Scalar.String())
	assert.Equal(t, "null", Null.String())
}
