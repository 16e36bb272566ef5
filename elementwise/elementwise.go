// Copyright 2026 Verity ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package elementwise provides the public API for the scalar post-operations
// a layernorm argument applies to each output element after the affine
// transform.
package elementwise

import (
	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/tensor"
)

// UnaryOp maps one compute-precision scalar to another. Implementations must
// be pure.
type UnaryOp[C tensor.Float] = elementwise.UnaryOp[C]

// Func adapts a plain function to a UnaryOp.
type Func[C tensor.Float] = elementwise.Func[C]

// PassThrough is the identity op, the default post-operation.
type PassThrough[C tensor.Float] = elementwise.PassThrough[C]

// Negate flips the sign of every element.
type Negate[C tensor.Float] = elementwise.Negate[C]

// Relu clamps negative values to zero.
type Relu[C tensor.Float] = elementwise.Relu[C]

// Sigmoid applies the logistic function 1 / (1 + exp(-v)).
type Sigmoid[C tensor.Float] = elementwise.Sigmoid[C]

// Scale multiplies every element by a fixed factor.
type Scale[C tensor.Float] = elementwise.Scale[C]
