package engine

import (
	"context"
	"testing"

	"coredb/pkg/execution"
	"coredb/pkg/optimizer/joingraph"
	"coredb/pkg/optimizer/statistics"
	"coredb/pkg/segment"
	"coredb/pkg/storage"
	"coredb/pkg/types"
)

type leafOp struct {
	execution.Base
	table *storage.Table
}

func (l *leafOp) Execute(ctx context.Context) (*storage.Table, error) {
	l.SetOutput(l.table)
	return l.table, nil
}
func (l *leafOp) DeepCopy() execution.Operator { return &leafOp{table: l.table} }

func int32Table(t *testing.T, name string, values []int32) *storage.Table {
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

type staticCatalog struct {
	rows [2]int64
}

func (c *staticCatalog) RowCount(v int) int64                              { return c.rows[v] }
func (c *staticCatalog) DistinctCount(v, col int) int64                    { return c.rows[v] }
func (c *staticCatalog) Histogram(v, col int) *statistics.Histogram        { return nil }

func TestEnginePipelinePlansAndExecutes(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2, 3})
	right := int32Table(t, "b", []int32{2, 3, 4})
	vertices := []execution.Operator{&leafOp{table: left}, &leafOp{table: right}}

	graph := joingraph.NewJoinGraph(vertices)
	graph.AddEdge(joingraph.Singleton(0).Union(joingraph.Singleton(1)), execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals})

	catalog := &staticCatalog{rows: [2]int64{3, 3}}

	e := New(WithPreparedCache(8))

	op, err := e.Pipeline(context.Background(), PipelineInput{
		Vertices: vertices,
		Graph:    graph,
		Catalog:  catalog,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	out, err := op.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 matching rows (2,3), got %d", out.RowCount())
	}

	if e.PlanCache().Len() != 1 {
		t.Fatalf("expected the compiled join tree to populate the plan cache, len=%d", e.PlanCache().Len())
	}

	// A second Pipeline call for the same shape should hit the plan cache
	// and skip DPccp, but still build fresh operators bound to a fresh
	// pair of leaf tables.
	left2 := int32Table(t, "a", []int32{1, 2, 3})
	right2 := int32Table(t, "b", []int32{2, 3, 4})
	vertices2 := []execution.Operator{&leafOp{table: left2}, &leafOp{table: right2}}

	op2, err := e.Pipeline(context.Background(), PipelineInput{
		Vertices: vertices2,
		Graph:    graph,
		Catalog:  catalog,
	})
	if err != nil {
		t.Fatalf("pipeline (cached): %v", err)
	}
	out2, err := op2.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute (cached): %v", err)
	}
	if out2.RowCount() != 2 {
		t.Fatalf("expected the cached plan rebuilt over fresh operators to still yield 2 rows, got %d", out2.RowCount())
	}
	if e.PlanCache().Len() != 1 {
		t.Fatalf("expected the cache hit not to grow the plan cache, len=%d", e.PlanCache().Len())
	}
}
