// Package iterator provides the dispatcher operators use to obtain a
// segment's uniform (value, is_null, chunk_offset) iteration abstraction
// (§4.1) without a type switch scattered through every operator body.
//
// Every segment variant already implements Segment.Iterate directly, so in
// this Go rendition the "single-step dispatch over (DataType, SegmentKind)"
// collapses to an interface call — the dispatch table exists to give
// callers a single, discoverable entry point and a place to hang future
// per-(type, kind) fast paths without touching operator code (§9's
// closed match table).
package iterator

import (
	"coredb/pkg/segment"
	"coredb/pkg/types"
)

// RowFunc is called once per row by Dispatch/DispatchAll.
type RowFunc func(value types.Field, isNull bool, offset int) error

// Dispatch resolves seg's data type and segment kind in one step and
// drives fn over every row. It is the sole entry point operators should
// use instead of type-asserting segments themselves.
func Dispatch(seg segment.Segment, fn RowFunc) error {
	return seg.Iterate(fn)
}

// DispatchAll runs Dispatch over every segment of a chunk-shaped row
// batch, useful for operators (e.g. a projection materializing a Data
// table) that need the same callback applied to a whole column vector.
func DispatchAll(segs []segment.Segment, fn func(col int, value types.Field, isNull bool, offset int) error) error {
	for col, seg := range segs {
		col := col
		if err := seg.Iterate(func(value types.Field, isNull bool, offset int) error {
			return fn(col, value, isNull, offset)
		}); err != nil {
			return err
		}
	}
	return nil
}
