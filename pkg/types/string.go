package types

import (
	"hash/fnv"
	"strings"
)

// StringField is a variable-length string scalar value.
type StringField struct{ Value string }

func NewStringField(v string) *StringField { return &StringField{Value: v} }

func (f *StringField) Type() DataType { return StringType }

func (f *StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, typeMismatch("compare", StringType, other.Type())
	}
	switch op {
	case Equals:
		return f.Value == o.Value, nil
	case NotEquals:
		return f.Value != o.Value, nil
	case LessThan:
		return f.Value < o.Value, nil
	case LessThanOrEqual:
		return f.Value <= o.Value, nil
	case GreaterThan:
		return f.Value > o.Value, nil
	case GreaterThanOrEqual:
		return f.Value >= o.Value, nil
	case Like:
		return matchLike(f.Value, o.Value, false)
	case NotLike:
		matched, err := matchLike(f.Value, o.Value, false)
		return !matched, err
	default:
		return false, typeMismatch("compare", StringType, other.Type())
	}
}

func (f *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && f.Value == o.Value
}

func (f *StringField) Less(other Field) bool {
	o, ok := other.(*StringField)
	return ok && f.Value < o.Value
}

func (f *StringField) String() string { return f.Value }

func (f *StringField) Hash() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(f.Value))
	return h.Sum32()
}

// matchLike translates a SQL LIKE pattern to a regular expression and
// matches it against value, per §4.5: `_` -> `.`, `%` -> `.*`, other regex
// metacharacters escaped, case-insensitive, full-string anchored.
func matchLike(value, pattern string, caseSensitive bool) (bool, error) {
	re, err := CompileLikePattern(pattern, caseSensitive)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

// isRegexMeta reports whether r needs escaping when embedded literally into
// a regular expression built from a LIKE pattern.
func isRegexMeta(r rune) bool {
	return strings.ContainsRune(`\.+*?()|[]{}^$`, r)
}
