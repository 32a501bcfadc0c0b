package joingraph

import "sort"

// Pair is one (S1, S2) result of EnumerateCsgCmp: a candidate join between
// two disjoint, individually connected vertex sets with at least one edge
// crossing between them (§4.8).
type Pair struct {
	S1, S2 VertexSet
}

// EnumerateCsgCmp enumerates every valid (S1, S2) pair over g's vertices,
// ordered so that |S1 ∪ S2| is non-decreasing — the ordering DPccp's
// bottom-up dynamic program requires (§4.8): a pair is never emitted
// before every smaller subset it could be built from.
//
// This is a direct (subset-enumeration) reference implementation of the
// csg-cmp condition rather than the recursive frontier-growing algorithm
// from the DPccp literature: for the join-graph sizes this engine plans
// over, enumerating and filtering candidate subsets by connectivity is
// simpler to state correctly, at the cost of doing more enumeration work
// per additional vertex than the recursive algorithm would.
func EnumerateCsgCmp(g *JoinGraph) []Pair {
	n := len(g.Vertices)
	if n == 0 {
		return nil
	}
	full := VertexSet(1)<<uint(n) - 1

	connected := make(map[VertexSet]bool)
	subsets := make([]VertexSet, 0, 1<<uint(n))
	for s := VertexSet(1); s <= full; s++ {
		subsets = append(subsets, s)
		connected[s] = g.connected(s)
	}

	var pairs []Pair
	for _, s1 := range subsets {
		if !connected[s1] {
			continue
		}
		complement := full.Without(s1)
		for _, s2 := range subsets {
			if !s2.IsSubsetOf(complement) || !connected[s2] {
				continue
			}
			if s1.Lowestv() > s2.Lowestv() {
				// each unordered pair is considered once, with the side
				// containing the lowest vertex id emitted first.
				continue
			}
			if !g.isConnectedByEdge(s1, s2) {
				continue
			}
			pairs = append(pairs, Pair{S1: s1, S2: s2})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].S1.Union(pairs[i].S2).Len() < pairs[j].S1.Union(pairs[j].S2).Len()
	})
	return pairs
}

// Lowestv is Lowest with its ok flag discarded, used only to pick a
// canonical ordering for pair deduplication; every VertexSet passed here
// is already known non-empty.
func (s VertexSet) Lowestv() int {
	v, _ := s.Lowest()
	return v
}
