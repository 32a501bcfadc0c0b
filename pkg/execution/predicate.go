package execution

import "coredb/pkg/types"

// ColumnPredicate compares one column of a left row against one column of
// a right row, the join condition shape of §4.5: `(Lc, Rc, op)`. A local
// (single-vertex) join-graph edge instead compares LeftColumn against a
// constant; NewLiteralPredicate sets Literal and leaves RightColumn
// unused for that case.
type ColumnPredicate struct {
	LeftColumn  int
	RightColumn int
	Op          types.Predicate
	Literal     types.Field
}

// NewLiteralPredicate builds a column-vs-constant predicate for a local
// (1-vertex) join-graph edge (§4.7), the shape histogram selectivity
// estimation (§4.6, §4.10) needs.
func NewLiteralPredicate(column int, op types.Predicate, value types.Field) ColumnPredicate {
	return ColumnPredicate{LeftColumn: column, Op: op, Literal: value}
}

// IsLiteral reports whether p compares against a constant rather than a
// second column.
func (p ColumnPredicate) IsLiteral() bool { return p.Literal != nil }

// Evaluate applies the predicate to two non-null field values. Callers are
// responsible for skipping null operands first (§4.5: "if l_null: continue"),
// since a null on either side never satisfies any predicate condition,
// including NotEquals.
func (p ColumnPredicate) Evaluate(left, right types.Field) (bool, error) {
	return left.Compare(p.Op, right)
}

// Flip returns the predicate viewed from the swapped-sides perspective,
// used when a Right join is executed by swapping (L,R) to make the outer
// side "left" (§4.5).
func (p ColumnPredicate) Flip() ColumnPredicate {
	return ColumnPredicate{LeftColumn: p.RightColumn, RightColumn: p.LeftColumn, Op: p.Op.Flip()}
}
