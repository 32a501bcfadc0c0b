// Package storage implements the chunk/table layer of §3.3: a table is an
// ordered list of fixed-capacity chunks; a chunk is a vector of segments
// plus optional MVCC metadata, indices and statistics.
package storage

import (
	"sync"

	"coredb/pkg/primitives"
)

// MvccData holds per-row MVCC visibility metadata for one chunk: for each
// row, begin_cid, end_cid and the owning transaction id (§3.3, glossary).
// Access is guarded by a single shared/exclusive lock per chunk (§5):
// shared during reads, exclusive during commit.
type MvccData struct {
	mu       sync.RWMutex
	beginCID []primitives.CommitID
	endCID   []primitives.CommitID
	tid      []primitives.TransactionID
}

// NewMvccData allocates MVCC metadata for a chunk of the given capacity,
// with every row initially invisible (begin_cid unset) until AppendRow is
// called for it.
func NewMvccData(capacity int) *MvccData {
	return &MvccData{
		beginCID: make([]primitives.CommitID, 0, capacity),
		endCID:   make([]primitives.CommitID, 0, capacity),
		tid:      make([]primitives.TransactionID, 0, capacity),
	}
}

// AppendRow records the MVCC metadata for a newly inserted row, born at
// beginCID under transaction tid and initially unbounded (end_cid = ∞).
func (m *MvccData) AppendRow(beginCID primitives.CommitID, tid primitives.TransactionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beginCID = append(m.beginCID, beginCID)
	m.endCID = append(m.endCID, primitives.InfiniteCommitID)
	m.tid = append(m.tid, tid)
}

// EndRow marks row as deleted as of endCID (exclusive lock: only taken
// during commit, §5).
func (m *MvccData) EndRow(row int, endCID primitives.CommitID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endCID[row] = endCID
}

// Visible implements the snapshot-isolation visibility rule of §5: a
// transaction observing snapshotCID sees row iff
// begin_cid <= snapshot_cid and (end_cid > snapshot_cid or end_cid = ∞).
func (m *MvccData) Visible(row int, snapshotCID primitives.CommitID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row < 0 || row >= len(m.beginCID) {
		return false
	}
	begin := m.beginCID[row]
	end := m.endCID[row]
	return begin <= snapshotCID && (end == primitives.InfiniteCommitID || end > snapshotCID)
}

// EndCIDAt returns row's current end_cid, used by commit-time conflict
// validation (§5) to detect whether a concurrent transaction already
// ended the same row.
func (m *MvccData) EndCIDAt(row int) primitives.CommitID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.endCID[row]
}

func (m *MvccData) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.beginCID)
}

// CommitIDAllocator hands out monotonically increasing commit ids;
// commits are serialised through it (§5).
type CommitIDAllocator struct {
	mu   sync.Mutex
	next primitives.CommitID
}

// NewCommitIDAllocator starts allocation at 1; commit id 0 is reserved to
// mean "not yet committed" and is never handed out.
func NewCommitIDAllocator() *CommitIDAllocator {
	return &CommitIDAllocator{next: 1}
}

func (a *CommitIDAllocator) Allocate() primitives.CommitID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	return id
}

func (a *CommitIDAllocator) Current() primitives.CommitID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next - 1
}
