package cardinality

import (
	"context"
	"testing"

	"coredb/pkg/cache"
	"coredb/pkg/execution"
	"coredb/pkg/optimizer/joingraph"
	"coredb/pkg/optimizer/statistics"
	"coredb/pkg/types"
)

type fakeCatalog struct {
	rows      map[int]int64
	distincts map[[2]int]int64
	hists     map[[2]int]*statistics.Histogram
}

func (c *fakeCatalog) RowCount(v int) int64 { return c.rows[v] }
func (c *fakeCatalog) DistinctCount(v, col int) int64 {
	return c.distincts[[2]int{v, col}]
}
func (c *fakeCatalog) Histogram(v, col int) *statistics.Histogram {
	return c.hists[[2]int{v, col}]
}

func newGraph(n int) *joingraph.JoinGraph {
	vertices := make([]execution.Operator, n)
	return joingraph.NewJoinGraph(vertices)
}

func TestColumnStatisticsEquiJoinFormula(t *testing.T) {
	catalog := &fakeCatalog{
		rows:      map[int]int64{0: 100, 1: 50},
		distincts: map[[2]int]int64{{0, 0}: 20, {1, 0}: 10},
	}
	graph := newGraph(2)
	graph.AddEdge(joingraph.Singleton(0).Union(joingraph.Singleton(1)), execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals})

	est := &ColumnStatistics{Catalog: catalog}
	card, err := est.Estimate(context.Background(), graph, joingraph.Singleton(0).Union(joingraph.Singleton(1)))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// |L|*|R|/max(distinct) = 100*50/20 = 250
	if card != 250 {
		t.Fatalf("expected 250, got %v", card)
	}
}

func TestColumnStatisticsNonEquiFraction(t *testing.T) {
	catalog := &fakeCatalog{rows: map[int]int64{0: 10, 1: 10}}
	graph := newGraph(2)
	graph.AddEdge(joingraph.Singleton(0).Union(joingraph.Singleton(1)), execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.LessThan})

	est := &ColumnStatistics{Catalog: catalog, NonEquiJoinSelectivity: 0.5}
	card, err := est.Estimate(context.Background(), graph, joingraph.Singleton(0).Union(joingraph.Singleton(1)))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if card != 50 {
		t.Fatalf("expected 10*10*0.5=50, got %v", card)
	}
}

func TestColumnStatisticsLocalPredicateSelectivity(t *testing.T) {
	values := []types.Field{types.NewInt32Field(1), types.NewInt32Field(2), types.NewInt32Field(3), types.NewInt32Field(4)}
	counts := []int64{25, 25, 25, 25}
	hist, err := statistics.NewHistogram(types.Int32Type, nil, values, counts, statistics.VariantBuckets{Variant: statistics.EqualNumElements, Target: 4})
	if err != nil {
		t.Fatalf("new histogram: %v", err)
	}

	catalog := &fakeCatalog{
		rows:  map[int]int64{0: 100},
		hists: map[[2]int]*statistics.Histogram{{0, 0}: hist},
	}
	graph := newGraph(1)
	graph.AddEdge(joingraph.Singleton(0), execution.NewLiteralPredicate(0, types.Equals, types.NewInt32Field(1)))

	est := &ColumnStatistics{Catalog: catalog}
	card, err := est.Estimate(context.Background(), graph, joingraph.Singleton(0))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if card <= 0 || card >= 100 {
		t.Fatalf("expected a selective estimate strictly between 0 and 100, got %v", card)
	}
}

func TestCachedEstimatorReadAndUpdate(t *testing.T) {
	catalog := &fakeCatalog{rows: map[int]int64{0: 10}}
	graph := newGraph(1)

	calls := 0
	fallback := estimatorFunc(func(ctx context.Context, g *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error) {
		calls++
		return 42, nil
	})

	cached := &Cached{
		Cache:    cache.NewCardinalityCache(16),
		Fallback: fallback,
		Mode:     ReadAndUpdate,
		Catalog:  catalog,
	}

	v1, err := cached.Estimate(context.Background(), graph, joingraph.Singleton(0))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	v2, err := cached.Estimate(context.Background(), graph, joingraph.Singleton(0))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if v1 != 42 || v2 != 42 {
		t.Fatalf("expected both estimates to be 42, got %v, %v", v1, v2)
	}
	if calls != 1 {
		t.Fatalf("expected the fallback to run once (cache hit on second call), ran %d times", calls)
	}
}

func TestFingerprintStableUnderVertexRelabeling(t *testing.T) {
	catalogA := &fakeCatalog{rows: map[int]int64{0: 10, 1: 20}}
	graphA := newGraph(2)
	graphA.AddEdge(joingraph.Singleton(0).Union(joingraph.Singleton(1)), execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals})

	catalogB := &fakeCatalog{rows: map[int]int64{0: 20, 1: 10}}
	graphB := newGraph(2)
	graphB.AddEdge(joingraph.Singleton(0).Union(joingraph.Singleton(1)), execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals})

	fpA := Fingerprint(graphA, joingraph.Singleton(0).Union(joingraph.Singleton(1)), catalogA)
	fpB := Fingerprint(graphB, joingraph.Singleton(0).Union(joingraph.Singleton(1)), catalogB)
	if fpA != fpB {
		t.Fatalf("expected structurally identical graphs with swapped vertex labels to fingerprint the same: %q vs %q", fpA, fpB)
	}
}

type estimatorFunc func(ctx context.Context, g *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error)

func (f estimatorFunc) Estimate(ctx context.Context, g *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error) {
	return f(ctx, g, s)
}
