// Copyright 2026 Verity ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the host-side tensors consumed
// by Verity kernels.
//
// The package defines the core types for building kernel inputs:
//   - Tensor[T]: typed convenience wrapper for tests and tooling
//   - RawTensor: low-level buffer the kernels operate on
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	x := tensor.Zeros[float32](tensor.Shape{64, 256})
//	arg := layernorm.MakeArgument(x.Raw(), ...)
package tensor

import (
	"math/rand"

	"github.com/verity-ml/verity/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for supported tensor storage types.
type DType = tensor.DType

// Float is a constraint for the compute precisions kernels accumulate in.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
)

// Device identifies where a kernel that consumes a tensor executes.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{64, 256} represents a 2D tensor with 64 rows of 256 features.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation: a contiguous row-major
// byte buffer plus shape, strides, and runtime type information.
type RawTensor = tensor.RawTensor

// Tensor is a typed convenience wrapper around RawTensor.
type Tensor[T DType] = tensor.Tensor[T]

// Creation functions

// Zeros creates a tensor filled with zeros.
func Zeros[T DType](shape Shape) *Tensor[T] {
	return tensor.Zeros[T](shape)
}

// Ones creates a tensor filled with ones.
func Ones[T DType](shape Shape) *Tensor[T] {
	return tensor.Ones[T](shape)
}

// Full creates a tensor filled with a specific value.
func Full[T DType](shape Shape, value T) *Tensor[T] {
	return tensor.Full[T](shape, value)
}

// Randn creates a float tensor with values drawn from a normal distribution
// (mean=0, std=1). The rng is caller-supplied so runs can be reproduced from
// a seed.
func Randn[T Float](shape Shape, rng *rand.Rand) *Tensor[T] {
	return tensor.Randn[T](shape, rng)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice[T DType](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// New wraps an existing RawTensor.
func New[T DType](raw *RawTensor) *Tensor[T] {
	return tensor.New[T](raw)
}

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
//
// This is a low-level function. Most users should use high-level creation
// functions instead.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Conversion functions

// ValueAt reads element i of r converted to compute precision C.
func ValueAt[C Float](r *RawTensor, i int) C {
	return tensor.ValueAt[C](r, i)
}

// SetValueAt writes v to element i of r, converting from compute precision C
// to the tensor's storage precision.
func SetValueAt[C Float](r *RawTensor, i int, v C) {
	tensor.SetValueAt(r, i, v)
}
