// Package execution implements the operator protocol of §4.4: a DAG node
// with at most two inputs that materializes either a Data table (fresh
// values) or a References table (PosLists into its inputs).
package execution

import (
	"context"

	"coredb/pkg/storage"
)

// Operator is a node in the physical execution DAG.
type Operator interface {
	// Execute computes the output table. Idempotent: calling it again
	// after a successful call returns the same output without redoing
	// work (§4.4).
	Execute(ctx context.Context) (*storage.Table, error)

	// GetOutput returns the output table computed by Execute, or ok=false
	// if Execute has not completed yet.
	GetOutput() (table *storage.Table, ok bool)

	// DeepCopy produces an independent operator subtree, sharing no
	// mutable state with the receiver, so the same logical plan can be
	// re-executed concurrently.
	DeepCopy() Operator

	// OnCleanup releases intermediate state once this operator's output
	// is no longer needed downstream (§4.4).
	OnCleanup() error
}

// Base implements the bookkeeping shared by every concrete operator:
// caching the output table and making Execute idempotent. Concrete
// operators embed Base and implement Execute themselves.
type Base struct {
	output   *storage.Table
	executed bool
}

func (b *Base) GetOutput() (*storage.Table, bool) {
	return b.output, b.executed
}

func (b *Base) OnCleanup() error {
	b.output = nil
	b.executed = false
	return nil
}

// SetOutput records a freshly computed output table and marks the
// operator executed, for use by embedding operators inside their Execute
// method.
func (b *Base) SetOutput(t *storage.Table) {
	b.output = t
	b.executed = true
}

// Executed reports whether Execute has already run successfully, letting
// embedding operators implement the idempotency half of §4.4's contract.
func (b *Base) Executed() bool { return b.executed }
