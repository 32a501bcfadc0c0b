package transaction

import (
	"fmt"
	"sync"

	"coredb/pkg/primitives"
	"coredb/pkg/storage"
)

// Registry manages all active transaction contexts and hands out
// monotonically increasing transaction ids and commit-time snapshots.
type Registry struct {
	mu       sync.RWMutex
	contexts map[primitives.TransactionID]*Context
	nextTID  primitives.TransactionID
	commits  *storage.CommitIDAllocator
}

// NewRegistry creates a transaction registry sharing the given commit-id
// allocator, typically the engine's single global allocator (§5).
func NewRegistry(commits *storage.CommitIDAllocator) *Registry {
	return &Registry{
		contexts: make(map[primitives.TransactionID]*Context),
		commits:  commits,
	}
}

// Begin starts a new transaction, snapshotting the allocator's current
// commit id (§5): every visibility check the transaction performs from
// here on is pinned to that snapshot.
func (r *Registry) Begin(perm Permissions) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTID++
	tid := r.nextTID
	ctx := NewContext(tid, r.commits.Current(), perm)
	r.contexts[tid] = ctx
	return ctx
}

func (r *Registry) Get(tid primitives.TransactionID) (*Context, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[tid]
	if !ok {
		return nil, fmt.Errorf("transaction: %s not found", tid)
	}
	return ctx, nil
}

// Commit validates ctx's write set, allocates a fresh commit id, stamps
// it onto ctx's writes, and removes ctx from the registry. On a
// validation conflict, ctx is aborted instead and the caller must retry
// or surface a TransactionAborted error (§7).
func (r *Registry) Commit(ctx *Context) error {
	if err := ctx.Validate(); err != nil {
		r.Abort(ctx)
		return err
	}
	commitCID := r.commits.Allocate()
	ctx.Apply(commitCID)
	ctx.SetStatus(Committed)
	r.remove(ctx.ID)
	return nil
}

// Abort discards ctx's pending writes without stamping any commit id.
func (r *Registry) Abort(ctx *Context) {
	ctx.SetStatus(Aborted)
	r.remove(ctx.ID)
}

func (r *Registry) remove(tid primitives.TransactionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, tid)
}

func (r *Registry) GetActive() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]*Context, 0, len(r.contexts))
	for _, ctx := range r.contexts {
		if ctx.IsActive() {
			active = append(active, ctx)
		}
	}
	return active
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}
