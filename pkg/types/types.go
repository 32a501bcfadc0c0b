// Package types defines the closed scalar type system that crosses every
// subsystem boundary in the engine: segments, histograms, join predicates
// and the optimizer all speak in terms of DataType and Field.
package types

// DataType is the closed set of scalar column types the engine understands.
type DataType int

const (
	Int32Type DataType = iota
	Int64Type
	Float32Type
	Float64Type
	StringType
	BoolType
)

func (t DataType) String() string {
	switch t {
	case Int32Type:
		return "INT32"
	case Int64Type:
		return "INT64"
	case Float32Type:
		return "FLOAT32"
	case Float64Type:
		return "FLOAT64"
	case StringType:
		return "STRING"
	case BoolType:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric reports whether the type participates in numeric histogram
// interpolation (§4.6): everything except String and Bool.
func (t DataType) IsNumeric() bool {
	switch t {
	case Int32Type, Int64Type, Float32Type, Float64Type:
		return true
	default:
		return false
	}
}
