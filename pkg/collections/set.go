package collections

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/prelude/pkg/scalar"
)

// Set is a collection of unique scalars. Elements iterate in insertion order.
// The zero value is an empty set ready to use.
type Set struct {
	items []any
	index map[any]int
}

// NewSet returns a set holding the given values.
func NewSet(values ...any) *Set {
	s := &Set{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was new.
func (s *Set) Add(v any) bool {
	if s.index == nil {
		s.index = make(map[any]int)
	}
	k := scalar.Key(v)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, v)
	return true
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[scalar.Key(v)]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Elements returns the members in insertion order.
func (s *Set) Elements() []any {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// Sorted returns the members in ascending natural order.
func (s *Set) Sorted() []any {
	out := s.Elements()
	slices.SortStableFunc(out, scalar.Compare)
	return out
}

// Union returns the members of s followed by the new members of o.
func (s *Set) Union(o *Set) *Set {
	u := NewSet(s.Elements()...)
	for _, v := range o.Elements() {
		u.Add(v)
	}
	return u
}

// Intersect returns the members of s that are also in o.
func (s *Set) Intersect(o *Set) *Set {
	out := &Set{}
	for _, v := range s.Elements() {
		if o.Has(v) {
			out.Add(v)
		}
	}
	return out
}

// Difference returns the members of s that are not in o.
func (s *Set) Difference(o *Set) *Set {
	out := &Set{}
	for _, v := range s.Elements() {
		if !o.Has(v) {
			out.Add(v)
		}
	}
	return out
}

// Equal reports whether both sets have the same members.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, v := range s.Elements() {
		if !o.Has(v) {
			return false
		}
	}
	return true
}

// String renders the members in sorted order, e.g. {1, 2, 3}.
func (s *Set) String() string {
	parts := make([]string, 0, s.Len())
	for _, v := range s.Sorted() {
		parts = append(parts, fmt.Sprint(v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SortedSet is a set whose elements iterate in ascending natural order.
type SortedSet struct {
	Set
}

// Elements returns the members in ascending natural order.
func (s *SortedSet) Elements() []any {
	if s == nil {
		return nil
	}
	return s.Set.Sorted()
}

// ToSet flattens args into a set.
func ToSet(opts Options, args ...any) (*Set, error) {
	values, err := List(opts, args...)
	if err != nil {
		return nil, err
	}
	return NewSet(values...), nil
}

// ToSortedSet flattens args into a sorted set.
func ToSortedSet(opts Options, args ...any) (*SortedSet, error) {
	s, err := ToSet(opts, args...)
	if err != nil {
		return nil, err
	}
	return &SortedSet{Set: *s}, nil
}
