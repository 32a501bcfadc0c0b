package optimizer

import (
	"context"
	"fmt"

	engerr "coredb/pkg/error"
	"coredb/pkg/optimizer/cardinality"
	"coredb/pkg/optimizer/costmodel"
	"coredb/pkg/optimizer/joingraph"

	"github.com/google/btree"
)

const btreeDegree = 8

// rankedPlan orders PlanNodes by cost for the Top-K subplan cache,
// breaking ties by discovery order so cost ties retain the earlier
// discovery (§4.9: "Tie-breaks: stable").
type rankedPlan struct {
	node  *PlanNode
	order int
}

func (a *rankedPlan) Less(than btree.Item) bool {
	b := than.(*rankedPlan)
	if a.node.Cost != b.node.Cost {
		return a.node.Cost < b.node.Cost
	}
	return a.order < b.order
}

// blacklistKey identifies one candidate join by its two sides, letting
// Blacklist force that specific split to cost +Inf without blocking
// other splits that reach the same combined vertex set (§4.9's "LQP
// blacklist").
type blacklistKey struct {
	left, right joingraph.VertexSet
}

// Blacklist forces specific (S1, S2) splits out of consideration, used
// to probe plan alternatives (§4.9).
type Blacklist map[blacklistKey]bool

func (b Blacklist) blocks(left, right joingraph.VertexSet) bool {
	return b[blacklistKey{left, right}] || b[blacklistKey{right, left}]
}

// subplanCache maps a vertex set to its top-K plans, cost-ordered via a
// google/btree.BTree so the current worst entry evicts in O(log K) when
// a cheaper plan arrives (the ordered-set-over-btree.Item idiom
// cockroachdb's inFlightWriteSet uses for its in-flight write set).
type subplanCache map[joingraph.VertexSet]*btree.BTree

func (c subplanCache) insert(s joingraph.VertexSet, node *PlanNode, k int, order *int) {
	tree, ok := c[s]
	if !ok {
		tree = btree.New(btreeDegree)
		c[s] = tree
	}
	*order++
	item := &rankedPlan{node: node, order: *order}
	if tree.Len() < k {
		tree.ReplaceOrInsert(item)
		return
	}
	worst := tree.Max().(*rankedPlan)
	if item.Less(worst) {
		tree.Delete(worst)
		tree.ReplaceOrInsert(item)
	}
}

func (c subplanCache) top(s joingraph.VertexSet) []*PlanNode {
	tree, ok := c[s]
	if !ok {
		return nil
	}
	out := make([]*PlanNode, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*rankedPlan).node)
		return true
	})
	return out
}

func (c subplanCache) best(s joingraph.VertexSet) *PlanNode {
	tree, ok := c[s]
	if !ok || tree.Len() == 0 {
		return nil
	}
	return tree.Min().(*rankedPlan).node
}

// DPccp implements §4.9's join-ordering search: seed a best plan per
// vertex, then fold EnumerateCsgCmp's pairs bottom-up by combined vertex
// count, keeping the cheapest join(s) found for every reachable vertex
// subset. k=1 recovers the single-best-plan variant; k>1 is the Top-K
// variant, cross-producing every top-K pair across both sides of a csg-cmp
// split.
func DPccp(ctx context.Context, graph *joingraph.JoinGraph, cost costmodel.CostModel, estimator cardinality.Estimator, k int, blacklist Blacklist) (*PlanNode, error) {
	if k < 1 {
		k = 1
	}
	n := len(graph.Vertices)
	if n == 0 {
		return nil, fmt.Errorf("optimizer: empty join graph")
	}

	cache := make(subplanCache, n*2)
	order := 0

	for v := 0; v < n; v++ {
		s := joingraph.Singleton(v)
		card, err := estimator.Estimate(ctx, graph, s)
		if err != nil {
			return nil, err
		}
		node := &PlanNode{
			Vertices:    s,
			Vertex:      v,
			Predicates:  graph.LocalPredicates(v),
			Cardinality: card,
			Cost:        cost.ScanCost(card),
		}
		cache.insert(s, node, k, &order)
	}

	for _, pair := range joingraph.EnumerateCsgCmp(graph) {
		if err := ctx.Err(); err != nil {
			return nil, engerr.Wrap(err, "DPCCP_CANCELLED", "DPccp", "optimizer")
		}
		if blacklist.blocks(pair.S1, pair.S2) {
			continue
		}

		combined := pair.S1.Union(pair.S2)
		leftPlans := cache.top(pair.S1)
		rightPlans := cache.top(pair.S2)
		preds := graph.ConnectingPredicates(pair.S1, pair.S2)

		lc, err := estimator.Estimate(ctx, graph, pair.S1)
		if err != nil {
			return nil, err
		}
		rc, err := estimator.Estimate(ctx, graph, pair.S2)
		if err != nil {
			return nil, err
		}
		jc, err := estimator.Estimate(ctx, graph, combined)
		if err != nil {
			return nil, err
		}

		for _, left := range leftPlans {
			for _, right := range rightPlans {
				joinCost := left.Cost + right.Cost + cost.JoinCost(lc, rc, jc)
				node := &PlanNode{
					Vertices:    combined,
					Left:        left,
					Right:       right,
					Predicates:  preds,
					Cardinality: jc,
					Cost:        joinCost,
				}
				cache.insert(combined, node, k, &order)
			}
		}
	}

	full := joingraph.VertexSet(1)<<uint(n) - 1
	best := cache.best(full)
	if best == nil {
		return nil, fmt.Errorf("optimizer: join graph is disconnected, no plan covers all %d vertices", n)
	}
	return best, nil
}
