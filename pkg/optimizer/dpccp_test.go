package optimizer

import (
	"context"
	"testing"

	"coredb/pkg/execution"
	"coredb/pkg/optimizer/costmodel"
	"coredb/pkg/optimizer/joingraph"
	"coredb/pkg/types"
)

// fixedCardinality reports a caller-supplied row count per vertex set,
// with joins costed as the product of their two sides — enough to make
// DPccp's cheapest-tree choice deterministic and easy to check by hand.
type fixedCardinality map[joingraph.VertexSet]float64

func (f fixedCardinality) Estimate(_ context.Context, _ *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error) {
	if v, ok := f[s]; ok {
		return v, nil
	}
	// unseeded combinations default to the product of their parts, so
	// DPccp's DP still has a self-consistent cardinality to fold with.
	total := 1.0
	s.ForEach(func(v int) { total *= f[joingraph.Singleton(v)] })
	return total, nil
}

// chainGraph builds A-B-C: A and C only reach each other through B, so
// the cheapest join order must build (A,B) or (B,C) before ever
// combining all three (§5's shape).
func chainGraph(t *testing.T) *joingraph.JoinGraph {
	t.Helper()
	vertices := make([]execution.Operator, 3)
	g := joingraph.NewJoinGraph(vertices)
	g.AddEdge(joingraph.Singleton(0).Union(joingraph.Singleton(1)), execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals})
	g.AddEdge(joingraph.Singleton(1).Union(joingraph.Singleton(2)), execution.ColumnPredicate{LeftColumn: 1, RightColumn: 0, Op: types.Equals})
	return g
}

func TestDPccpPrefersCheaperIntermediate(t *testing.T) {
	g := chainGraph(t)
	// A is huge, B and C are small and highly selective against each
	// other: (B,C) first then joining A last is the cheap route, since
	// (A,B) first would carry A's size through the whole plan.
	card := fixedCardinality{
		joingraph.Singleton(0):                          10000,
		joingraph.Singleton(1):                          10,
		joingraph.Singleton(2):                          10,
		joingraph.Singleton(1).Union(joingraph.Singleton(2)): 10,
	}

	plan, err := DPccp(context.Background(), g, costmodel.Default{}, card, 1, nil)
	if err != nil {
		t.Fatalf("dpccp: %v", err)
	}
	if plan.Vertices != joingraph.Singleton(0).Union(joingraph.Singleton(1)).Union(joingraph.Singleton(2)) {
		t.Fatalf("expected the final plan to cover all three vertices")
	}

	// the top-level join's cheaper side should be the (B,C) pair, not A
	// alone, since B join C was made artificially cheap above.
	bc := joingraph.Singleton(1).Union(joingraph.Singleton(2))
	if plan.Left.Vertices != bc && plan.Right.Vertices != bc {
		t.Fatalf("expected the cheap (B,C) subplan to appear as one side of the top join")
	}
}

func TestDPccpTopKKeepsMultipleCandidates(t *testing.T) {
	g := chainGraph(t)
	card := fixedCardinality{
		joingraph.Singleton(0): 100,
		joingraph.Singleton(1): 100,
		joingraph.Singleton(2): 100,
	}

	cache := make(subplanCache, 8)
	order := 0
	for v := 0; v < 3; v++ {
		s := joingraph.Singleton(v)
		c, _ := card.Estimate(context.Background(), g, s)
		cache.insert(s, &PlanNode{Vertices: s, Vertex: v, Cost: c}, 2, &order)
	}
	if len(cache.top(joingraph.Singleton(0))) != 1 {
		t.Fatalf("a singleton vertex set has only one possible plan")
	}

	pair := joingraph.Singleton(0).Union(joingraph.Singleton(1))
	cache.insert(pair, &PlanNode{Vertices: pair, Cost: 5}, 2, &order)
	cache.insert(pair, &PlanNode{Vertices: pair, Cost: 3}, 2, &order)
	cache.insert(pair, &PlanNode{Vertices: pair, Cost: 9}, 2, &order)

	top := cache.top(pair)
	if len(top) != 2 {
		t.Fatalf("expected k=2 to retain exactly 2 candidates, got %d", len(top))
	}
	if top[0].Cost != 3 || top[1].Cost != 5 {
		t.Fatalf("expected the two cheapest plans (3, 5) to survive, got (%v, %v)", top[0].Cost, top[1].Cost)
	}
}

func TestDPccpBlacklistForcesAlternateSplit(t *testing.T) {
	g := chainGraph(t)
	card := fixedCardinality{
		joingraph.Singleton(0): 10,
		joingraph.Singleton(1): 10,
		joingraph.Singleton(2): 10,
	}

	baseline, err := DPccp(context.Background(), g, costmodel.Default{}, card, 1, nil)
	if err != nil {
		t.Fatalf("dpccp: %v", err)
	}

	blacklist := Blacklist{}
	blacklist[blacklistKey{left: baseline.Left.Vertices, right: baseline.Right.Vertices}] = true

	alternate, err := DPccp(context.Background(), g, costmodel.Default{}, card, 1, blacklist)
	if err != nil {
		t.Fatalf("dpccp with blacklist: %v", err)
	}
	if alternate.Left.Vertices == baseline.Left.Vertices && alternate.Right.Vertices == baseline.Right.Vertices {
		t.Fatalf("expected blacklisting the baseline's top-level split to force a different plan")
	}
}

func TestDPccpRejectsDisconnectedGraph(t *testing.T) {
	vertices := make([]execution.Operator, 2)
	g := joingraph.NewJoinGraph(vertices)
	card := fixedCardinality{joingraph.Singleton(0): 10, joingraph.Singleton(1): 10}

	if _, err := DPccp(context.Background(), g, costmodel.Default{}, card, 1, nil); err == nil {
		t.Fatalf("expected an error for a join graph with no edge connecting its two vertices")
	}
}
