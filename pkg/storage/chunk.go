package storage

import (
	"fmt"

	"coredb/pkg/segment"
)

// Index is an opaque per-chunk secondary structure. The core does not
// specify concrete index implementations (out of scope, §1); operators
// only need to know a chunk carries zero or more of them.
type Index interface {
	Name() string
}

// ChunkStatistics carries the chunk's row count as recorded when the chunk
// was built; rows appended later are not reflected in it. Per-column
// histograms are not stored on chunks or tables: the cardinality
// estimator fetches them through its ColumnCatalog (§3.6).
type ChunkStatistics struct {
	RowCount int
}

// Chunk is a fixed-capacity vector of segments plus optional MVCC
// metadata, indices and statistics (§3.3). At most the table's last chunk
// is mutable; every other chunk is sealed and immutable.
type Chunk struct {
	columns    []segment.Segment
	capacity   int
	mvcc       *MvccData
	indices    []Index
	statistics *ChunkStatistics
	mutable    bool
}

// NewChunk wraps a fixed set of segments (already the same length) as a
// chunk. mvcc may be nil for Reference-table chunks, which carry no MVCC
// metadata of their own (they inherit visibility from the underlying data
// chunks via PosList indirection).
func NewChunk(columns []segment.Segment, capacity int, mvcc *MvccData, mutable bool) (*Chunk, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("storage: chunk must have at least one column")
	}
	size := columns[0].Size()
	for i, c := range columns {
		if c.Size() != size {
			return nil, fmt.Errorf("storage: column %d has %d rows, column 0 has %d", i, c.Size(), size)
		}
	}
	return &Chunk{
		columns:    columns,
		capacity:   capacity,
		mvcc:       mvcc,
		mutable:    mutable,
		statistics: &ChunkStatistics{RowCount: size},
	}, nil
}

func (c *Chunk) ColumnCount() int          { return len(c.columns) }
func (c *Chunk) Column(i int) segment.Segment { return c.columns[i] }
func (c *Chunk) Columns() []segment.Segment   { return c.columns }
func (c *Chunk) Capacity() int             { return c.capacity }
func (c *Chunk) Mvcc() *MvccData           { return c.mvcc }
func (c *Chunk) Indices() []Index          { return c.indices }
func (c *Chunk) Statistics() *ChunkStatistics { return c.statistics }
func (c *Chunk) IsMutable() bool           { return c.mutable }
func (c *Chunk) IsFull() bool              { return c.RowCount() >= c.capacity }

func (c *Chunk) RowCount() int {
	if len(c.columns) == 0 {
		return 0
	}
	return c.columns[0].Size()
}

// Seal marks the chunk immutable (§4.3: "append_chunk seals the previous
// last chunk"). Sealing a chunk that is already sealed is a no-op.
func (c *Chunk) Seal() {
	c.mutable = false
	for _, col := range c.columns {
		if vs, ok := col.(*segment.ValueSegment); ok {
			vs.Seal()
		}
	}
}

// AddIndex attaches a secondary index to this chunk.
func (c *Chunk) AddIndex(idx Index) { c.indices = append(c.indices, idx) }

// ReplaceColumn atomically swaps column i for a new segment: readers that
// already hold a reference to the old segment keep observing it safely,
// since Go slice element assignment is a single-pointer swap and segments
// are immutable once built (§4.3, §9 design notes).
func (c *Chunk) ReplaceColumn(i int, s segment.Segment) error {
	if i < 0 || i >= len(c.columns) {
		return fmt.Errorf("storage: column index %d out of range", i)
	}
	if s.Size() != c.RowCount() {
		return fmt.Errorf("storage: replacement column has %d rows, chunk has %d", s.Size(), c.RowCount())
	}
	c.columns[i] = s
	return nil
}
