// Package costmodel implements the pluggable cost interface DPccp scores
// candidate join trees with (§4.9, §4.13), grounded on the teacher's
// pkg/optimizer/cost_model split between a CostModel and the
// CardinalityEstimator it consumes.
package costmodel

// CostModel scores a candidate join plan from the cardinalities of its
// inputs and its own output, and scores a base-relation scan. Both
// return an abstract, dimensionless cost unit; only relative ordering
// matters to DPccp.
type CostModel interface {
	// JoinCost is the concrete shape of spec.md §4.9's C.join_cost(...).
	JoinCost(leftCard, rightCard, outputCard float64) float64

	// ScanCost prices materializing a base relation of the given
	// cardinality, the vertex-seed step of §4.9.
	ScanCost(cardinality float64) float64
}

// Default is the engine's built-in cost model: a nested-loop join cost
// (every left row probed against every right row, plus the output size)
// and a linear scan cost.
type Default struct{}

// JoinCost charges for probing every left row against every right row
// (the nested-loop join's actual work) plus materializing the output.
func (Default) JoinCost(leftCard, rightCard, outputCard float64) float64 {
	return leftCard*rightCard + outputCard
}

// ScanCost is linear in the relation's cardinality.
func (Default) ScanCost(cardinality float64) float64 {
	return cardinality
}
