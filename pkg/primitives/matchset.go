package primitives

import "github.com/RoaringBitmap/roaring"

// MatchSet tracks which chunk offsets within a single chunk have found at
// least one join partner. The nested-loop join (§4.5) allocates one of
// these per outer-side chunk to know, once both relations have been fully
// scanned, which rows still need NULL-extension.
//
// A compressed bitmap is the right structure here: chunks can be tens of
// thousands of rows wide and the join scans set bits sparsely and
// non-sequentially as matches are discovered.
type MatchSet struct {
	bits *roaring.Bitmap
}

// NewMatchSet returns an empty match set.
func NewMatchSet() *MatchSet {
	return &MatchSet{bits: roaring.New()}
}

// Mark records that offset found a join partner.
func (m *MatchSet) Mark(offset ChunkOffset) {
	m.bits.Add(uint32(offset))
}

// Matched reports whether offset has found a join partner.
func (m *MatchSet) Matched(offset ChunkOffset) bool {
	return m.bits.Contains(uint32(offset))
}

// Unmatched calls fn for every offset in [0, size) that was never marked,
// in ascending order — the rows a Left/Right/Outer join must NULL-extend.
func (m *MatchSet) Unmatched(size int, fn func(ChunkOffset)) {
	for i := uint32(0); i < uint32(size); i++ {
		if !m.bits.Contains(i) {
			fn(ChunkOffset(i))
		}
	}
}
