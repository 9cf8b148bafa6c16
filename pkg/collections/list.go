// Package collections provides list, set and Venn views over the flatten
// engine. Each view is a fixed policy preset: the caller chooses the field,
// mode and strictness, the view chooses deduplication and ordering.
package collections

import (
	"github.com/mesh-intelligence/prelude/pkg/flatten"
)

// Options carries the caller-chosen part of a flatten request.
type Options struct {
	Field        string
	Mode         flatten.Mode
	Strict       bool
	AllowNull    bool
	ErrorIfEmpty bool
	Transform    func(any) any
}

func (o Options) request(args []any) flatten.Request {
	return flatten.Request{
		Args:         args,
		Field:        o.Field,
		Mode:         o.Mode,
		Strict:       o.Strict,
		AllowNull:    o.AllowNull,
		ErrorIfEmpty: o.ErrorIfEmpty,
		Transform:    o.Transform,
	}
}

// List flattens args preserving order and repeats.
func List(opts Options, args ...any) ([]any, error) {
	return flatten.Flatten(opts.request(args))
}

// DistinctList flattens args keeping the first occurrence of each value.
func DistinctList(opts Options, args ...any) ([]any, error) {
	req := opts.request(args)
	req.Distinct = true
	return flatten.Flatten(req)
}

// SortedList flattens args in ascending natural order.
func SortedList(opts Options, args ...any) ([]any, error) {
	req := opts.request(args)
	req.Sort = true
	return flatten.Flatten(req)
}

// DistinctSortedList flattens args, drops repeats and sorts.
func DistinctSortedList(opts Options, args ...any) ([]any, error) {
	req := opts.request(args)
	req.Distinct = true
	req.Sort = true
	return flatten.Flatten(req)
}
