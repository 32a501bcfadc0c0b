// Package cardinality implements the three cardinality-estimation
// variants of §4.10 (ColumnStatistics, Executed, Cached) over a join
// graph's vertex sets, plus the structural fingerprinting the Cached
// variant keys its cache lookups by.
package cardinality

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"coredb/pkg/cache"
	"coredb/pkg/execution"
	"coredb/pkg/optimizer/joingraph"
	"coredb/pkg/optimizer/statistics"
	"coredb/pkg/types"
	"coredb/pkg/utils/functools"
)

// Estimator returns an estimated row count for a vertex subset of a join
// graph (§4.9's Ĉ).
type Estimator interface {
	Estimate(ctx context.Context, graph *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error)
}

// ColumnCatalog is the per-vertex, per-column statistics source the
// ColumnStatistics estimator consults (§3.6's ColumnStatistics record).
type ColumnCatalog interface {
	RowCount(vertex int) int64
	DistinctCount(vertex, column int) int64
	Histogram(vertex, column int) *statistics.Histogram
}

// ColumnStatistics estimates a vertex set's cardinality by applying
// per-column histogram selectivities to local predicates and the
// textbook equi-join formula to joins (§4.10).
type ColumnStatistics struct {
	Catalog ColumnCatalog

	// NonEquiJoinSelectivity is the configurable fraction applied to
	// |L|*|R| for join predicates that are not an equality comparison
	// (§4.10: "a configurable fraction otherwise").
	NonEquiJoinSelectivity float64
}

func (e *ColumnStatistics) Estimate(_ context.Context, graph *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error) {
	if s.Empty() {
		return 0, fmt.Errorf("cardinality: empty vertex set")
	}
	if v, ok := s.Lowest(); ok && s.Len() == 1 {
		return e.estimateVertex(graph, v)
	}

	// Peel off the lowest-numbered vertex as one side of the join and
	// recurse on the remainder; this always yields a valid (though not
	// necessarily plan-optimal) decomposition, since DPccp calls this
	// estimator per csg-cmp pair rather than per arbitrary subset in
	// practice, and this method only needs to be self-consistent.
	v, _ := s.Lowest()
	rightSet := joingraph.Singleton(v)
	leftSet := s.Without(rightSet)

	leftCard, err := e.Estimate(context.Background(), graph, leftSet)
	if err != nil {
		return 0, err
	}
	rightCard, err := e.estimateVertex(graph, v)
	if err != nil {
		return 0, err
	}

	preds := graph.ConnectingPredicates(leftSet, rightSet)
	return e.joinCardinality(graph, leftSet, rightSet, leftCard, rightCard, preds), nil
}

// estimateVertex applies every local (1-vertex) edge predicate's
// histogram selectivity multiplicatively to the vertex's base row count
// (§4.10). Predicates without a literal (execution.ColumnPredicate
// comparing two columns of the same vertex) are skipped rather than
// assumed selective, since assuming selectivity here would silently bias
// every downstream join-order decision.
func (e *ColumnStatistics) estimateVertex(graph *joingraph.JoinGraph, v int) (float64, error) {
	card := float64(e.Catalog.RowCount(v))
	rowCount := float64(e.Catalog.RowCount(v))
	for _, p := range graph.LocalPredicates(v) {
		if !p.IsLiteral() || rowCount == 0 {
			continue
		}
		hist := e.Catalog.Histogram(v, p.LeftColumn)
		if hist == nil {
			continue
		}
		est, err := hist.EstimateCardinality(p.Literal, p.Op)
		if err != nil {
			return 0, err
		}
		card *= est / rowCount
	}
	return card, nil
}

func (e *ColumnStatistics) joinCardinality(graph *joingraph.JoinGraph, leftSet, rightSet joingraph.VertexSet, leftCard, rightCard float64, preds []execution.ColumnPredicate) float64 {
	isEqui := false
	var leftVertex, rightVertex, leftCol, rightCol int
	for _, p := range preds {
		if p.Op == types.Equals {
			isEqui = true
			leftVertex, _ = leftSet.Lowest()
			rightVertex, _ = rightSet.Lowest()
			leftCol, rightCol = p.LeftColumn, p.RightColumn
			break
		}
	}
	if !isEqui {
		return leftCard * rightCard * e.fraction()
	}

	maxDistinct := math.Max(float64(e.Catalog.DistinctCount(leftVertex, leftCol)), float64(e.Catalog.DistinctCount(rightVertex, rightCol)))
	if maxDistinct <= 0 {
		maxDistinct = 1
	}
	return leftCard * rightCard / maxDistinct
}

func (e *ColumnStatistics) fraction() float64 {
	if e.NonEquiJoinSelectivity > 0 {
		return e.NonEquiJoinSelectivity
	}
	return 0.1
}

// Executed runs the subplan for a vertex set to ground truth, used for
// debugging estimator quality and for populating the cache (§4.10).
type Executed struct {
	BuildPlan func(s joingraph.VertexSet) (execution.Operator, error)
}

func (e *Executed) Estimate(ctx context.Context, _ *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error) {
	op, err := e.BuildPlan(s)
	if err != nil {
		return 0, err
	}
	table, err := op.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return float64(table.RowCount()), nil
}

// CacheMode selects whether a cache miss just falls back, or also writes
// the fallback's answer back into the cache (§4.10).
type CacheMode int

const (
	ReadOnly CacheMode = iota
	ReadAndUpdate
)

// Cached wraps a fallback Estimator with the structural fingerprint cache
// of §4.10.
type Cached struct {
	Cache    *cache.CardinalityCache
	Fallback Estimator
	Mode     CacheMode
	Catalog  ColumnCatalog
}

func (e *Cached) Estimate(ctx context.Context, graph *joingraph.JoinGraph, s joingraph.VertexSet) (float64, error) {
	fp := Fingerprint(graph, s, e.Catalog)
	if v, ok := e.Cache.Get(fp); ok {
		return v, nil
	}
	v, err := e.Fallback.Estimate(ctx, graph, s)
	if err != nil {
		return 0, err
	}
	if e.Mode == ReadAndUpdate {
		e.Cache.Put(fp, v)
	}
	return v, nil
}

// Fingerprint computes §4.10's structural fingerprint: the vertices of s
// are relabeled into a canonical order (by row count, then vertex index)
// so two structurally identical subqueries produce the same fingerprint
// regardless of which physical vertex indices they use, and the edges
// wholly inside s are encoded relative to that canonical labeling.
func Fingerprint(graph *joingraph.JoinGraph, s joingraph.VertexSet, catalog ColumnCatalog) string {
	var vertices []int
	s.ForEach(func(v int) { vertices = append(vertices, v) })

	sort.Slice(vertices, func(i, j int) bool {
		vi, vj := vertices[i], vertices[j]
		ri, rj := catalog.RowCount(vi), catalog.RowCount(vj)
		if ri != rj {
			return ri < rj
		}
		return vi < vj
	})
	canonical := make(map[int]int, len(vertices))
	for idx, v := range vertices {
		canonical[v] = idx
	}

	parts := functools.Map(vertices, func(v int) string {
		return fmt.Sprintf("v%d:%d", canonical[v], catalog.RowCount(v))
	})

	inSubset := functools.Filter(graph.Edges, func(e joingraph.JoinGraphEdge) bool {
		return e.VertexSet.IsSubsetOf(s)
	})
	var edgeParts []string
	for _, e := range inSubset {
		var endpoints []int
		e.VertexSet.ForEach(func(v int) { endpoints = append(endpoints, canonical[v]) })
		sort.Ints(endpoints)
		for _, p := range e.Predicates {
			edgeParts = append(edgeParts, fmt.Sprintf("e%v:%s:%d:%d", endpoints, p.Op, p.LeftColumn, p.RightColumn))
		}
	}
	sort.Strings(edgeParts)

	return strings.Join(parts, ",") + "|" + strings.Join(edgeParts, ",")
}
