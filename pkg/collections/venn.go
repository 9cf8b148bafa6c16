package collections

import "github.com/mesh-intelligence/prelude/pkg/flatten"

// Venn flattens left and right into sets and splits them into the members
// only on the left, the members on both sides and the members only on the
// right. The three parts are pairwise disjoint and their union is the union
// of both sides.
func Venn(left, right any) (leftOnly, both, rightOnly *Set, err error) {
	opts := Options{Mode: flatten.Values}
	l, err := ToSet(opts, left)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := ToSet(opts, right)
	if err != nil {
		return nil, nil, nil, err
	}
	both = l.Intersect(r)
	return l.Difference(both), both, r.Difference(both), nil
}
