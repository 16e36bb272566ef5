package tensor

import "fmt"

// ValueAt reads the element at flat index i, converted from the tensor's
// storage precision into compute precision C. Reference kernels go through
// this (and SetValueAt) so that every storage<->compute conversion is an
// explicit read-time or write-time step.
func ValueAt[C Float](r *RawTensor, i int) C {
	switch r.dtype {
	case Float32:
		return C(r.AsFloat32()[i])
	case Float64:
		return C(r.AsFloat64()[i])
	case Int32:
		return C(r.AsInt32()[i])
	default:
		panic(fmt.Sprintf("convert: unsupported storage dtype %s", r.dtype))
	}
}

// SetValueAt writes v at flat index i, converted from compute precision C
// into the tensor's storage precision.
func SetValueAt[C Float](r *RawTensor, i int, v C) {
	switch r.dtype {
	case Float32:
		r.AsFloat32()[i] = float32(v)
	case Float64:
		r.AsFloat64()[i] = float64(v)
	case Int32:
		r.AsInt32()[i] = int32(v)
	default:
		panic(fmt.Sprintf("convert: unsupported storage dtype %s", r.dtype))
	}
}
