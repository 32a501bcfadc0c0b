// Package transaction implements the MVCC transaction lifecycle of §5:
// each transaction reads a fixed snapshot commit id and, on commit, is
// validated against concurrent writers before its own writes become
// visible.
package transaction

import (
	"fmt"
	"sync"
	"time"

	engerr "coredb/pkg/error"
	"coredb/pkg/primitives"
	"coredb/pkg/storage"
)

// Status represents the current state of a transaction.
type Status int

const (
	Active Status = iota
	Committing
	Aborting
	Committed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Committing:
		return "COMMITTING"
	case Aborting:
		return "ABORTING"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Permissions represents the access level a transaction requested when it
// began.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

// pendingEnd is a delete/update recorded by this transaction: the row it
// ends at commit, and the end_cid the row carried when it was recorded,
// so commit-time validation can detect a concurrent writer that beat it
// to the same row.
type pendingEnd struct {
	mvcc    *storage.MvccData
	row     int
	prevEnd primitives.CommitID
}

// Stats holds a snapshot of per-transaction counters, useful for tracing.
type Stats struct {
	RowsRead    int
	RowsWritten int
	RowsDeleted int
	ChunksTouched int
}

// Context encapsulates all state for a single transaction: its snapshot,
// lifecycle status, and the write set validated at commit (§5).
type Context struct {
	ID          primitives.TransactionID
	Permissions Permissions
	SnapshotCID primitives.CommitID

	mu        sync.RWMutex
	status    Status
	startTime time.Time
	endTime   time.Time

	pending []pendingEnd

	rowsRead      int
	rowsWritten   int
	rowsDeleted   int
	touchedChunks map[*storage.MvccData]struct{}
}

// NewContext starts a transaction whose snapshot is the given commit id:
// every visibility check performed by this transaction observes exactly
// the rows committed at or before snapshotCID (§5).
func NewContext(tid primitives.TransactionID, snapshotCID primitives.CommitID, perm Permissions) *Context {
	return &Context{
		ID:            tid,
		Permissions:   perm,
		SnapshotCID:   snapshotCID,
		status:        Active,
		startTime:     time.Now(),
		touchedChunks: make(map[*storage.MvccData]struct{}),
	}
}

func (c *Context) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status == Active
}

func (c *Context) GetStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Context) setStatus(s Status) {
	c.status = s
	if s == Committed || s == Aborted {
		c.endTime = time.Now()
	}
}

// RecordRead marks that this transaction observed rows in mvcc, e.g. as
// part of a table scan feeding a join or histogram build.
func (c *Context) RecordRead(mvcc *storage.MvccData, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rowsRead += rows
	if mvcc != nil {
		c.touchedChunks[mvcc] = struct{}{}
	}
}

// RecordDelete records row as pending deletion by this transaction and
// remembers the row's prior end_cid, so commit-time validation can detect
// whether another transaction ended the same row first (§5, write-write
// conflict). The row's MVCC data is left unchanged until Apply.
func (c *Context) RecordDelete(mvcc *storage.MvccData, row int, prevEnd primitives.CommitID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingEnd{mvcc: mvcc, row: row, prevEnd: prevEnd})
	c.rowsDeleted++
	c.touchedChunks[mvcc] = struct{}{}
}

// RecordWrite marks that this transaction inserted rows via mvcc.
func (c *Context) RecordWrite(mvcc *storage.MvccData, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rowsWritten += rows
	if mvcc != nil {
		c.touchedChunks[mvcc] = struct{}{}
	}
}

// Validate checks every pending delete against its row's current end_cid:
// if some other transaction committed a different end_cid for the same
// row since it was recorded here, this transaction must abort rather than
// stamp its own commit id over a conflicting write (§5).
func (c *Context) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.pending {
		if p.mvcc.EndCIDAt(p.row) != p.prevEnd {
			err := engerr.New(engerr.TransactionAborted, "MVCC_WRITE_CONFLICT",
				fmt.Sprintf("row %d already ended by a concurrent writer", p.row))
			err.Operation = "Commit"
			err.Component = "transaction"
			return err
		}
	}
	return nil
}

// Apply stamps commitCID onto every pending delete, finalizing this
// transaction's writes so they become visible to snapshots taken at or
// after commitCID.
func (c *Context) Apply(commitCID primitives.CommitID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pending {
		p.mvcc.EndRow(p.row, commitCID)
	}
}

func (c *Context) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStatus(s)
}

func (c *Context) GetStatistics() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		RowsRead:      c.rowsRead,
		RowsWritten:   c.rowsWritten,
		RowsDeleted:   c.rowsDeleted,
		ChunksTouched: len(c.touchedChunks),
	}
}

func (c *Context) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	end := c.endTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(c.startTime)
}

func (c *Context) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("Transaction %s [status=%s, snapshot=%d, duration=%v]",
		c.ID, c.status, c.SnapshotCID, c.Duration())
}
