package join

import (
	"coredb/pkg/primitives"
	"coredb/pkg/segment"
	"coredb/pkg/storage"
)

// resolution describes, for one column of a join input side, the table
// (and column within it) the emitted output ReferenceSegment must point
// at, plus the function that flattens a RowID addressing the input side
// into a RowID addressing that deepest table (§4.5).
type resolution struct {
	target    segment.ReferenceTarget
	targetCol int
	flatten   func(primitives.RowID) primitives.RowID
}

// resolveColumn inspects column colIdx of table and determines the
// deepest Data table it ultimately references. If table is a Data table
// (or the column holds a non-reference segment), the identity resolution
// is returned. If table is empty (zero chunks), a dummy Data table with
// table's schema stands in as the target so downstream ReferenceSegments
// never dangle (§4.3, §4.5).
func resolveColumn(table *storage.Table, colIdx int, chunkCapacity int) resolution {
	if table.ChunkCount() == 0 {
		dummy := storage.CreateDummyTable(table.Schema(), chunkCapacity)
		return resolution{
			target:    dummy,
			targetCol: colIdx,
			flatten:   func(primitives.RowID) primitives.RowID { return primitives.NullRowID },
		}
	}

	firstChunkSeg := table.GetChunk(0).Column(colIdx)
	refSeg, ok := firstChunkSeg.(*segment.ReferenceSegment)
	if !ok {
		return resolution{
			target:    table,
			targetCol: colIdx,
			flatten:   func(r primitives.RowID) primitives.RowID { return r },
		}
	}

	deepTable := refSeg.ReferencedTable()
	deepCol := refSeg.ReferencedColumn()
	return resolution{
		target:    deepTable,
		targetCol: deepCol,
		flatten: func(r primitives.RowID) primitives.RowID {
			if r.IsNull() {
				return primitives.NullRowID
			}
			chunk := table.GetChunk(int(r.ChunkID))
			s := chunk.Column(colIdx).(*segment.ReferenceSegment)
			return (*s.PosList())[r.ChunkOffset]
		},
	}
}

// flattenPosList applies res.flatten to every entry of pos, in order.
func flattenPosList(res resolution, pos segment.PosList) segment.PosList {
	out := make(segment.PosList, len(pos))
	for i, r := range pos {
		out[i] = res.flatten(r)
	}
	return out
}
