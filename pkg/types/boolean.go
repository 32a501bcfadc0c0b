package types

import "hash/fnv"

// BoolField is a boolean scalar value.
type BoolField struct{ Value bool }

func NewBoolField(v bool) *BoolField { return &BoolField{Value: v} }

func (f *BoolField) Type() DataType { return BoolType }

func (f *BoolField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*BoolField)
	if !ok {
		return false, typeMismatch("compare", BoolType, other.Type())
	}
	switch op {
	case Equals:
		return f.Value == o.Value, nil
	case NotEquals:
		return f.Value != o.Value, nil
	default:
		return false, typeMismatch("compare", BoolType, other.Type())
	}
}

func (f *BoolField) Equals(other Field) bool {
	o, ok := other.(*BoolField)
	return ok && f.Value == o.Value
}

func (f *BoolField) Less(other Field) bool {
	o, ok := other.(*BoolField)
	return ok && !f.Value && o.Value
}

func (f *BoolField) String() string {
	if f.Value {
		return "true"
	}
	return "false"
}

func (f *BoolField) Hash() uint32 {
	h := fnv.New32a()
	if f.Value {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	return h.Sum32()
}
