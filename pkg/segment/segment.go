// Package segment implements the immutable-after-build column segment
// variants of §3.2: ValueSegment, DictionarySegment,
// FixedStringDictionarySegment and ReferenceSegment, plus the dictionary
// encoding procedure of §4.2 and the uniform iteration abstraction of
// §4.1.
package segment

import "coredb/pkg/types"

// Segment is the capability set every column-storage variant exposes:
// random-access by offset, size, and (via Iterate) the uniform
// (value, is_null) iteration abstraction of §4.1.
type Segment interface {
	// Type is the scalar data type stored by this segment.
	Type() types.DataType

	// Size returns the number of logical rows in this segment.
	Size() int

	// At returns the value at chunk offset i (random access). The bool
	// result is true when the row is NULL, in which case the Field
	// return must be ignored.
	At(i int) (types.Field, bool, error)

	// Iterate calls fn once per row in order, passing the value (ignored
	// when isNull is true), whether the row is null, and the row's
	// chunk offset. Iterate is the mechanism operators use instead of
	// calling At in a loop, so dictionary and reference segments can
	// avoid a redundant lookup per row.
	Iterate(fn func(value types.Field, isNull bool, offset int) error) error
}

// Nullable is implemented by segments that were built with a null-bit
// vector or null sentinel; segments that can never contain a null (e.g. a
// non-nullable ValueSegment) need not implement it.
type Nullable interface {
	Nullable() bool
}
