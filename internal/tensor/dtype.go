// Package tensor provides the host-side tensor types used by the Verity
// reference oracles and the kernels validated against them.
package tensor

// DType is a constraint for supported tensor storage types.
type DType interface {
	~float32 | ~float64 | ~int32
}

// Float is a constraint for the compute precisions kernels accumulate in.
// Compute precision is deliberately separate from storage precision:
// elements are converted on read and converted back on write, never
// implicitly.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported storage types.
const (
	Float32 DataType = iota
	Float64
	Int32
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	default:
		panic("unsupported type")
	}
}
