// Package optimizer implements DPccp join ordering (§4.9) over a
// JoinGraph, producing the abstract join tree the plan builder (§4.11)
// materializes into a physical operator tree.
package optimizer

import (
	"coredb/pkg/execution"
	"coredb/pkg/optimizer/joingraph"
)

// PlanNode is one node of the join tree DPccp searches over: a leaf
// (single vertex) or an internal join of two smaller subplans.
type PlanNode struct {
	Vertices joingraph.VertexSet

	// Leaf fields (Left == nil).
	Vertex int

	// Internal fields.
	Left, Right *PlanNode

	// Predicates holds a leaf's local predicates, or an internal node's
	// connecting join predicates.
	Predicates []execution.ColumnPredicate

	Cost        float64
	Cardinality float64
}

func (n *PlanNode) IsLeaf() bool { return n.Left == nil }
