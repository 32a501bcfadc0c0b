package segment

import (
	"fmt"

	"coredb/pkg/primitives"
	"coredb/pkg/types"
)

// PosList is an ordered sequence of RowIDs, the backbone of reference
// segments (§3.2, glossary). It may contain NULL_ROW_ID entries. A single
// PosList is shared, by pointer, among every ReferenceSegment emitted
// together by one operator call, so they stay aligned row-wise (§3.2
// invariant).
type PosList []primitives.RowID

// ReferenceTarget is the minimal surface a ReferenceSegment needs from the
// table it indirects through: random access to a column's value at a
// given chunk/offset. Implemented by storage.Table.
type ReferenceTarget interface {
	ColumnType(columnIndex int) types.DataType
	ValueAt(chunkID primitives.ChunkID, offset primitives.ChunkOffset, columnIndex int) (types.Field, bool, error)
}

// ReferenceSegment is a segment whose values are obtained by indirecting
// through a shared PosList into a referenced data table (§3.2). It never
// owns data itself; the referenced table must outlive it (§9 design
// notes: the pipeline keeps referenced tables alive for the query scope).
type ReferenceSegment struct {
	referencedTable  ReferenceTarget
	referencedColumn int
	posList          *PosList
}

// NewReferenceSegment builds a ReferenceSegment over posList (shared with
// sibling reference segments emitted by the same operator call).
func NewReferenceSegment(table ReferenceTarget, column int, posList *PosList) *ReferenceSegment {
	return &ReferenceSegment{referencedTable: table, referencedColumn: column, posList: posList}
}

func (rs *ReferenceSegment) Type() types.DataType { return rs.referencedTable.ColumnType(rs.referencedColumn) }
func (rs *ReferenceSegment) Size() int            { return len(*rs.posList) }
func (rs *ReferenceSegment) Nullable() bool       { return true }
func (rs *ReferenceSegment) PosList() *PosList    { return rs.posList }

// ReferencedTable and ReferencedColumn expose the indirection target, used
// by the join operator to flatten PosLists when one join input is itself a
// References table (§4.5).
func (rs *ReferenceSegment) ReferencedTable() ReferenceTarget { return rs.referencedTable }
func (rs *ReferenceSegment) ReferencedColumn() int            { return rs.referencedColumn }

func (rs *ReferenceSegment) At(i int) (types.Field, bool, error) {
	if i < 0 || i >= len(*rs.posList) {
		return nil, false, fmt.Errorf("segment: offset %d out of range [0,%d)", i, len(*rs.posList))
	}
	row := (*rs.posList)[i]
	if row.IsNull() {
		return nil, true, nil
	}
	return rs.referencedTable.ValueAt(row.ChunkID, row.ChunkOffset, rs.referencedColumn)
}

// Iterate resolves each RowID through the referenced column in order,
// emitting a null for NULL_ROW_ID entries (§4.1).
func (rs *ReferenceSegment) Iterate(fn func(value types.Field, isNull bool, offset int) error) error {
	for i, row := range *rs.posList {
		if row.IsNull() {
			if err := fn(nil, true, i); err != nil {
				return err
			}
			continue
		}
		v, isNull, err := rs.referencedTable.ValueAt(row.ChunkID, row.ChunkOffset, rs.referencedColumn)
		if err != nil {
			return err
		}
		if err := fn(v, isNull, i); err != nil {
			return err
		}
	}
	return nil
}
