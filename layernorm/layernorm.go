// Copyright 2026 Verity ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layernorm provides the public API for the row-wise layer
// normalization kernels: the sequential reference oracle and the
// row-parallel CPU counterpart.
//
// The intended workflow mirrors how accelerated kernels are validated:
//
//	op := layernorm.Reference[float32]{}
//	arg := layernorm.MakeArgument(x, gamma, beta, y, mean, invStd,
//	    elementwise.PassThrough[float32]{}, []int{m, n}, []int{1}, 1e-5)
//	if !op.IsSupportedArgument(arg) {
//	    // configuration outside the oracle's capability
//	}
//	if err := arg.Validate(); err != nil {
//	    // malformed descriptor
//	}
//	op.MakeInvoker().Run(arg, device.Config{})
package layernorm

import (
	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/layernorm"
	"github.com/verity-ml/verity/internal/tensor"
)

// Error kinds reported by Argument.Validate.
var (
	ErrUnsupportedConfiguration = layernorm.ErrUnsupportedConfiguration
	ErrMalformedDescriptor      = layernorm.ErrMalformedDescriptor
)

// Argument captures one fully-specified invocation of the algorithm.
type Argument[C tensor.Float] = layernorm.Argument[C]

// Reference is the sequential oracle. Its output is treated as ground truth
// when validating accelerated implementations of the same operation.
type Reference[C tensor.Float] = layernorm.Reference[C]

// Invoker runs the reference algorithm against a validated argument.
type Invoker[C tensor.Float] = layernorm.Invoker[C]

// Parallel is the row-parallel CPU counterpart to Reference. Same-precision
// runs are bit-identical to the oracle.
type Parallel[C tensor.Float] = layernorm.Parallel[C]

// ParallelInvoker runs the fused row-parallel kernel.
type ParallelInvoker[C tensor.Float] = layernorm.ParallelInvoker[C]

// MakeArgument stores its inputs verbatim. No validation or defaulting
// happens here; Validate and IsSupportedArgument are separate, explicit
// steps.
func MakeArgument[C tensor.Float](
	x, gamma, beta *tensor.RawTensor,
	y, saveMean, saveInvStd *tensor.RawTensor,
	op elementwise.UnaryOp[C],
	lengths, reduceDims []int,
	epsilon C,
) *Argument[C] {
	return layernorm.MakeArgument(x, gamma, beta, y, saveMean, saveInvStd, op, lengths, reduceDims, epsilon)
}

// NewParallel creates the row-parallel kernel with the default worker pool.
func NewParallel[C tensor.Float]() Parallel[C] {
	return layernorm.NewParallel[C]()
}
