// Package plan materializes a DPccp-chosen join tree (§4.9) into a
// physical operator tree (§4.11): vertex plans become base subtrees,
// join nodes become NestedLoopJoin operators, and local predicates
// collapse into one Selection per vertex, pushed below every join.
package plan

import (
	"fmt"

	engerr "coredb/pkg/error"
	"coredb/pkg/execution"
	"coredb/pkg/execution/join"
	"coredb/pkg/optimizer"
)

// Options configures physical materialization: chunk capacity and
// worker count feed straight through to every NestedLoopJoin built.
type Options struct {
	ChunkCapacity int
	Workers       int
}

// Build walks node (as returned by optimizer.DPccp) and produces the
// physical operator tree, resolving each leaf's vertex index against
// vertices (§4.11 step 1).
func Build(node *optimizer.PlanNode, vertices []execution.Operator, opts Options) (execution.Operator, error) {
	if node == nil {
		return nil, fmt.Errorf("plan: nil plan node")
	}
	if node.IsLeaf() {
		return buildLeaf(node, vertices)
	}
	return buildJoin(node, vertices, opts)
}

// buildLeaf wraps a base relation's plan with a single Selection
// collapsing all of its local predicates (§4.11 step 3: "push uncorrelated
// single-vertex predicates down below joins" — a leaf is by definition
// below every join above it, so this collapse doubles as the push-down).
func buildLeaf(node *optimizer.PlanNode, vertices []execution.Operator) (execution.Operator, error) {
	if node.Vertex < 0 || node.Vertex >= len(vertices) {
		return nil, fmt.Errorf("plan: vertex index %d out of range", node.Vertex)
	}
	base := vertices[node.Vertex]
	if len(node.Predicates) == 0 {
		return base, nil
	}
	return execution.NewSelection(base, node.Predicates...)
}

// buildJoin materializes an internal join node. A node without connecting
// predicates becomes a Cross join; a node with exactly one becomes an
// Inner NestedLoopJoin driven by that predicate, whatever its comparison
// (§4.5's single (Lc,Rc,P) signature admits exactly one join condition).
// A node with more than one connecting predicate is rejected as
// Unsupported, since this engine's join operator has no post-filter stage
// for column-vs-column conditions evaluated after the join (only
// Selection's column-vs-literal conjunction plays that role, and a
// post-join residual is column-vs-column by construction).
func buildJoin(node *optimizer.PlanNode, vertices []execution.Operator, opts Options) (execution.Operator, error) {
	left, err := Build(node.Left, vertices, opts)
	if err != nil {
		return nil, err
	}
	right, err := Build(node.Right, vertices, opts)
	if err != nil {
		return nil, err
	}

	if len(node.Predicates) == 0 {
		return join.NewNestedLoopJoin(left, right, join.Cross, execution.ColumnPredicate{}, opts.ChunkCapacity, opts.Workers), nil
	}
	if len(node.Predicates) > 1 {
		return nil, engerr.New(engerr.Unsupported, "MULTI_PREDICATE_JOIN", "join node has more than one connecting predicate; composite join conditions are not supported")
	}

	return join.NewNestedLoopJoin(left, right, join.Inner, node.Predicates[0], opts.ChunkCapacity, opts.Workers), nil
}
