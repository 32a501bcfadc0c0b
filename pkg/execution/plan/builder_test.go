package plan

import (
	"context"
	"testing"

	"coredb/pkg/execution"
	"coredb/pkg/execution/join"
	"coredb/pkg/optimizer"
	"coredb/pkg/optimizer/joingraph"
	"coredb/pkg/segment"
	"coredb/pkg/storage"
	"coredb/pkg/types"
)

type leaf struct {
	execution.Base
	table *storage.Table
}

func (l *leaf) Execute(ctx context.Context) (*storage.Table, error) {
	l.SetOutput(l.table)
	return l.table, nil
}
func (l *leaf) DeepCopy() execution.Operator { return &leaf{table: l.table} }

func buildTable(t *testing.T, name string, values []int32) *storage.Table {
	t.Helper()
	variants := make([]types.AllTypeVariant, len(values))
	for i, v := range values {
		variants[i] = types.NewVariant(types.NewInt32Field(v))
	}
	seg, err := segment.NewValueSegmentFromVariants(types.Int32Type, variants)
	if err != nil {
		t.Fatalf("build segment: %v", err)
	}
	schema := []storage.ColumnDef{{Name: name, Type: types.Int32Type}}
	table := storage.NewTable(schema, storage.Data, 64)
	if err := table.AppendChunk([]segment.Segment{seg}, nil); err != nil {
		t.Fatalf("append chunk: %v", err)
	}
	return table
}

// TestBuildJoinTree covers S5's shape: a two-vertex join tree with a
// local predicate on one leaf, materialized into a Selection feeding a
// NestedLoopJoin.
func TestBuildJoinTree(t *testing.T) {
	left := buildTable(t, "a", []int32{1, 2, 3})
	right := buildTable(t, "b", []int32{2, 3, 4})
	vertices := []execution.Operator{&leaf{table: left}, &leaf{table: right}}

	leftNode := &optimizer.PlanNode{
		Vertices: joingraph.Singleton(0),
		Vertex:   0,
		Predicates: []execution.ColumnPredicate{
			execution.NewLiteralPredicate(0, types.GreaterThan, types.NewInt32Field(1)),
		},
	}
	rightNode := &optimizer.PlanNode{Vertices: joingraph.Singleton(1), Vertex: 1}
	joinNode := &optimizer.PlanNode{
		Vertices: joingraph.Singleton(0).Union(joingraph.Singleton(1)),
		Left:     leftNode,
		Right:    rightNode,
		Predicates: []execution.ColumnPredicate{
			{LeftColumn: 0, RightColumn: 0, Op: types.Equals},
		},
	}

	op, err := Build(joinNode, vertices, Options{ChunkCapacity: 64})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := op.(*join.NestedLoopJoin); !ok {
		t.Fatalf("expected top-level operator to be a NestedLoopJoin, got %T", op)
	}

	out, err := op.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// left after filtering a>1 is {2,3}; joined with right {2,3,4} on
	// equality yields exactly 2 rows: (2,2) and (3,3).
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.RowCount())
	}
}

func TestBuildRejectsMultiPredicateJoin(t *testing.T) {
	vertices := []execution.Operator{&leaf{table: buildTable(t, "a", []int32{1})}, &leaf{table: buildTable(t, "b", []int32{1})}}
	node := &optimizer.PlanNode{
		Left:  &optimizer.PlanNode{Vertex: 0},
		Right: &optimizer.PlanNode{Vertex: 1},
		Predicates: []execution.ColumnPredicate{
			{LeftColumn: 0, RightColumn: 0, Op: types.Equals},
			{LeftColumn: 0, RightColumn: 0, Op: types.NotEquals},
		},
	}
	if _, err := Build(node, vertices, Options{ChunkCapacity: 64}); err == nil {
		t.Fatalf("expected an error for a multi-predicate join node")
	}
}
