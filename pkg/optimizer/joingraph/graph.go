// Package joingraph builds the vertex/edge representation the DPccp join
// orderer enumerates over (§3.5, §4.7): each base relation is a vertex,
// each join or local predicate is an edge over the vertex set its columns
// touch.
package joingraph

import "coredb/pkg/execution"

// VertexSet is a bitmask over join-graph vertices, one bit per vertex
// index. 64 vertices is comfortably beyond any join this engine plans in
// one DPccp pass.
type VertexSet uint64

// Singleton returns the VertexSet containing only vertex v.
func Singleton(v int) VertexSet { return VertexSet(1) << uint(v) }

func (s VertexSet) Contains(v int) bool { return s&Singleton(v) != 0 }
func (s VertexSet) Union(o VertexSet) VertexSet        { return s | o }
func (s VertexSet) Intersect(o VertexSet) VertexSet    { return s & o }
func (s VertexSet) Without(o VertexSet) VertexSet      { return s &^ o }
func (s VertexSet) IsSubsetOf(o VertexSet) bool        { return s&o == s }
func (s VertexSet) Overlaps(o VertexSet) bool          { return s&o != 0 }
func (s VertexSet) Empty() bool                        { return s == 0 }

// Len returns the number of vertices in the set.
func (s VertexSet) Len() int {
	n := 0
	for s != 0 {
		s &= s - 1
		n++
	}
	return n
}

// Lowest returns the index of the lowest-numbered vertex in the set and
// ok=false if the set is empty.
func (s VertexSet) Lowest() (v int, ok bool) {
	if s == 0 {
		return 0, false
	}
	v = 0
	for s&1 == 0 {
		s >>= 1
		v++
	}
	return v, true
}

// ForEach calls fn once per vertex present in the set, in ascending order.
func (s VertexSet) ForEach(fn func(v int)) {
	for v := 0; s != 0; v++ {
		if s&1 != 0 {
			fn(v)
		}
		s >>= 1
	}
}

// JoinGraphEdge is a predicate attached over the vertex set its referenced
// columns touch (§3.5). An edge with one vertex carries a local
// (single-table) predicate; two vertices, a binary join predicate; more
// than two, a hyper-predicate.
type JoinGraphEdge struct {
	VertexSet  VertexSet
	Predicates []execution.ColumnPredicate
}

// JoinGraph is the input to EnumerateCsgCmp/DPccp: one vertex per base
// relation's logical plan, plus the edges connecting them (§3.5).
type JoinGraph struct {
	Vertices []execution.Operator
	Edges    []JoinGraphEdge
}

// NewJoinGraph builds an empty graph over the given vertex plans.
func NewJoinGraph(vertices []execution.Operator) *JoinGraph {
	return &JoinGraph{Vertices: vertices}
}

// AddEdge attaches predicates over the given vertex set.
func (g *JoinGraph) AddEdge(vertices VertexSet, predicates ...execution.ColumnPredicate) {
	g.Edges = append(g.Edges, JoinGraphEdge{VertexSet: vertices, Predicates: predicates})
}

// LocalPredicates returns every 1-vertex edge's predicates attached to
// vertex v, the seed step of DPccp (§4.9 step 1).
func (g *JoinGraph) LocalPredicates(v int) []execution.ColumnPredicate {
	var preds []execution.ColumnPredicate
	target := Singleton(v)
	for _, e := range g.Edges {
		if e.VertexSet == target {
			preds = append(preds, e.Predicates...)
		}
	}
	return preds
}

// ConnectingPredicates returns the predicates of every edge whose vertex
// set is a non-trivial subset of s1∪s2 but not wholly contained in either
// side — exactly §4.9 step 2's "P" definition.
func (g *JoinGraph) ConnectingPredicates(s1, s2 VertexSet) []execution.ColumnPredicate {
	combined := s1.Union(s2)
	var preds []execution.ColumnPredicate
	for _, e := range g.Edges {
		if !e.VertexSet.IsSubsetOf(combined) {
			continue
		}
		if e.VertexSet.IsSubsetOf(s1) || e.VertexSet.IsSubsetOf(s2) {
			continue
		}
		preds = append(preds, e.Predicates...)
	}
	return preds
}

// neighbors returns the set of vertices directly connected to any vertex
// in s by a binary (2-vertex) edge, excluding s itself — the expansion
// frontier connected grows its search along.
func (g *JoinGraph) neighbors(s VertexSet) VertexSet {
	var out VertexSet
	for _, e := range g.Edges {
		if e.VertexSet.Len() != 2 {
			continue
		}
		if e.VertexSet.Overlaps(s) {
			out = out.Union(e.VertexSet.Without(s))
		}
	}
	return out
}

// connected reports whether s induces a connected subgraph of g's binary
// edges (§4.8's connectivity requirement). A singleton is trivially
// connected.
func (g *JoinGraph) connected(s VertexSet) bool {
	v, ok := s.Lowest()
	if !ok {
		return true
	}
	visited := Singleton(v)
	frontier := Singleton(v)
	for {
		next := g.neighbors(frontier).Intersect(s).Without(visited)
		if next.Empty() {
			break
		}
		visited = visited.Union(next)
		frontier = next
	}
	return visited == s
}

// isConnectedByEdge reports whether at least one edge crosses between s1
// and s2, the "there exists an edge between S1 and S2" clause of §4.8.
func (g *JoinGraph) isConnectedByEdge(s1, s2 VertexSet) bool {
	for _, e := range g.Edges {
		if e.VertexSet.Len() != 2 {
			continue
		}
		if e.VertexSet.Overlaps(s1) && e.VertexSet.Overlaps(s2) {
			return true
		}
	}
	return false
}
