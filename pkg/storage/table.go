package storage

import (
	"fmt"

	"coredb/pkg/primitives"
	"coredb/pkg/segment"
	"coredb/pkg/types"
)

// TableType distinguishes materialized Data tables from References
// tables whose chunks contain only ReferenceSegments (§3.3).
type TableType int

const (
	Data TableType = iota
	References
)

// ColumnDef is one entry of a table's schema (§3.3).
type ColumnDef struct {
	Name     string
	Type     types.DataType
	Nullable bool
}

// Table is an ordered list of fixed-capacity chunks sharing one schema
// (§3.3). At most the last chunk may be non-full and mutable; every other
// chunk is sealed.
type Table struct {
	schema        []ColumnDef
	tableType     TableType
	chunkCapacity int
	chunks        []*Chunk
	commitAlloc   *CommitIDAllocator
}

// NewTable creates an empty table with the given schema, type and
// per-chunk row capacity.
func NewTable(schema []ColumnDef, tableType TableType, chunkCapacity int) *Table {
	return &Table{
		schema:        schema,
		tableType:     tableType,
		chunkCapacity: chunkCapacity,
		commitAlloc:   NewCommitIDAllocator(),
	}
}

// CreateDummyTable returns an empty Data table with the given schema, used
// when a reference join's underlying References input has zero chunks so
// its output ReferenceSegments still have a Data table to point at (§4.5).
func CreateDummyTable(schema []ColumnDef, chunkCapacity int) *Table {
	return NewTable(schema, Data, chunkCapacity)
}

func (t *Table) Schema() []ColumnDef   { return t.schema }
func (t *Table) ColumnCount() int      { return len(t.schema) }
func (t *Table) Type() TableType       { return t.tableType }
func (t *Table) ChunkCapacity() int    { return t.chunkCapacity }
func (t *Table) ChunkCount() int       { return len(t.chunks) }
func (t *Table) GetChunk(i int) *Chunk { return t.chunks[i] }
func (t *Table) Chunks() []*Chunk      { return t.chunks }

func (t *Table) ColumnIsNullable(i int) bool { return t.schema[i].Nullable }
func (t *Table) ColumnType(i int) types.DataType { return t.schema[i].Type }

func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.schema {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) RowCount() int {
	total := 0
	for _, c := range t.chunks {
		total += c.RowCount()
	}
	return total
}

// AppendChunk adds a fully-built chunk and seals whatever was previously
// the last chunk (§4.3).
func (t *Table) AppendChunk(columns []segment.Segment, mvcc *MvccData) error {
	if len(columns) != len(t.schema) {
		return fmt.Errorf("storage: chunk has %d columns, table schema has %d", len(columns), len(t.schema))
	}
	if len(t.chunks) > 0 {
		t.chunks[len(t.chunks)-1].Seal()
	}
	chunk, err := NewChunk(columns, t.chunkCapacity, mvcc, true)
	if err != nil {
		return err
	}
	t.chunks = append(t.chunks, chunk)
	return nil
}

// Append inserts a single row into the mutable last chunk, allocating a
// new one if it is full or absent. This path exists for debug/testing use
// only (§4.3); production ingestion goes through AppendChunk.
func (t *Table) Append(row []types.AllTypeVariant, tid primitives.TransactionID, beginCID primitives.CommitID) error {
	if len(row) != len(t.schema) {
		return fmt.Errorf("storage: row has %d values, table schema has %d", len(row), len(t.schema))
	}

	last := t.lastMutableChunk()
	if last == nil || last.IsFull() {
		if err := t.allocateMutableChunk(); err != nil {
			return err
		}
		last = t.lastMutableChunk()
	}

	for i, v := range row {
		vs, ok := last.Column(i).(*segment.ValueSegment)
		if !ok {
			return fmt.Errorf("storage: Append only supports mutable ValueSegment columns, column %d is %T", i, last.Column(i))
		}
		if v.IsNull() {
			if err := vs.AppendNull(); err != nil {
				return err
			}
			continue
		}
		if err := vs.Append(v.Value()); err != nil {
			return err
		}
	}
	if last.mvcc != nil {
		last.mvcc.AppendRow(beginCID, tid)
	}
	return nil
}

func (t *Table) lastMutableChunk() *Chunk {
	if len(t.chunks) == 0 {
		return nil
	}
	last := t.chunks[len(t.chunks)-1]
	if !last.mutable {
		return nil
	}
	return last
}

func (t *Table) allocateMutableChunk() error {
	if len(t.chunks) > 0 {
		t.chunks[len(t.chunks)-1].Seal()
	}
	columns := make([]segment.Segment, len(t.schema))
	for i, col := range t.schema {
		columns[i] = segment.NewValueSegment(col.Type, col.Nullable, t.chunkCapacity)
	}
	chunk, err := NewChunk(columns, t.chunkCapacity, NewMvccData(t.chunkCapacity), true)
	if err != nil {
		return err
	}
	t.chunks = append(t.chunks, chunk)
	return nil
}

// ValueAt implements segment.ReferenceTarget: random access into a
// specific chunk/offset/column, the indirection every ReferenceSegment
// resolves through (§3.2, §4.1).
func (t *Table) ValueAt(chunkID primitives.ChunkID, offset primitives.ChunkOffset, columnIndex int) (types.Field, bool, error) {
	if int(chunkID) >= len(t.chunks) {
		return nil, false, fmt.Errorf("storage: chunk id %d out of range [0,%d)", chunkID, len(t.chunks))
	}
	return t.chunks[chunkID].Column(columnIndex).At(int(offset))
}

// CommitIDAllocator exposes the table's monotonic commit-id allocator so
// callers issuing writes can stamp MVCC metadata (§5).
func (t *Table) CommitIDAllocator() *CommitIDAllocator { return t.commitAlloc }
