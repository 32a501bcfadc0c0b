package types

// Predicate is a comparison or matching operator used by selections, join
// conditions and histogram queries alike.
type Predicate int

const (
	Equals Predicate = iota
	NotEquals
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Like
	NotLike
	Between
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="
	case NotEquals:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case Like:
		return "LIKE"
	case NotLike:
		return "NOT LIKE"
	case Between:
		return "BETWEEN"
	default:
		return "UNKNOWN"
	}
}

// Flip returns the predicate that holds when the operands are swapped, e.g.
// `a < b` flipped is `b > a`. Used when a join swaps sides (Right -> Left).
func (p Predicate) Flip() Predicate {
	switch p {
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	default:
		return p
	}
}

// IsEquiJoin reports whether p is usable as an equi-join condition; only
// Equals qualifies for the cardinality shortcut in §4.10.
func (p Predicate) IsEquiJoin() bool {
	return p == Equals
}
