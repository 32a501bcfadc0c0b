package segment

import (
	"fmt"

	"coredb/pkg/types"
)

// ValueSegment is a dense vector of values plus a parallel null-bit vector
// (only present if the segment is nullable). It is mutable until the
// owning chunk is sealed (§3.2, §4.3).
type ValueSegment struct {
	dataType types.DataType
	values   []types.Field
	nulls    []bool // nil when not nullable
	sealed   bool
}

// NewValueSegment creates an empty, mutable ValueSegment of the given type.
func NewValueSegment(dt types.DataType, nullable bool, capacity int) *ValueSegment {
	vs := &ValueSegment{
		dataType: dt,
		values:   make([]types.Field, 0, capacity),
	}
	if nullable {
		vs.nulls = make([]bool, 0, capacity)
	}
	return vs
}

// NewValueSegmentFromVariants builds a ValueSegment from a slice of
// AllTypeVariant, used mainly by tests and by callers materializing scan
// results one row at a time.
func NewValueSegmentFromVariants(dt types.DataType, values []types.AllTypeVariant) (*ValueSegment, error) {
	nullable := false
	for _, v := range values {
		if v.IsNull() {
			nullable = true
			break
		}
	}
	vs := NewValueSegment(dt, nullable, len(values))
	for _, v := range values {
		if v.IsNull() {
			if err := vs.AppendNull(); err != nil {
				return nil, err
			}
			continue
		}
		if v.Value().Type() != dt {
			return nil, fmt.Errorf("segment: value type %s does not match segment type %s", v.Value().Type(), dt)
		}
		if err := vs.Append(v.Value()); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

func (vs *ValueSegment) Type() types.DataType { return vs.dataType }
func (vs *ValueSegment) Size() int            { return len(vs.values) }
func (vs *ValueSegment) Nullable() bool       { return vs.nulls != nil }

// Append adds a non-null value. Fails once the segment is sealed.
func (vs *ValueSegment) Append(v types.Field) error {
	if vs.sealed {
		return fmt.Errorf("segment: cannot append to a sealed ValueSegment")
	}
	vs.values = append(vs.values, v)
	if vs.nulls != nil {
		vs.nulls = append(vs.nulls, false)
	}
	return nil
}

// AppendNull adds a null row. Fails if the segment was not built nullable.
func (vs *ValueSegment) AppendNull() error {
	if vs.sealed {
		return fmt.Errorf("segment: cannot append to a sealed ValueSegment")
	}
	if vs.nulls == nil {
		return fmt.Errorf("segment: cannot append null to a non-nullable segment")
	}
	vs.values = append(vs.values, nil)
	vs.nulls = append(vs.nulls, true)
	return nil
}

// Seal marks the segment immutable, as required once its owning chunk is
// no longer the table's mutable last chunk (§4.3).
func (vs *ValueSegment) Seal() { vs.sealed = true }

func (vs *ValueSegment) At(i int) (types.Field, bool, error) {
	if i < 0 || i >= len(vs.values) {
		return nil, false, fmt.Errorf("segment: offset %d out of range [0,%d)", i, len(vs.values))
	}
	if vs.nulls != nil && vs.nulls[i] {
		return nil, true, nil
	}
	return vs.values[i], false, nil
}

func (vs *ValueSegment) Iterate(fn func(value types.Field, isNull bool, offset int) error) error {
	for i, v := range vs.values {
		isNull := vs.nulls != nil && vs.nulls[i]
		if err := fn(v, isNull, i); err != nil {
			return err
		}
	}
	return nil
}

// Values exposes the backing slice for the dictionary-encoding procedure
// (§4.2); callers must not mutate it after the segment is sealed.
func (vs *ValueSegment) Values() []types.Field { return vs.values }

// NullFlags exposes the parallel null-bit vector, or nil if not nullable.
func (vs *ValueSegment) NullFlags() []bool { return vs.nulls }
