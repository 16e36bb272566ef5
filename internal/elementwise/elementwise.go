// Package elementwise provides the scalar post-operations a layernorm
// argument can apply to each output element after the affine transform.
package elementwise

import (
	"math"

	"github.com/verity-ml/verity/internal/tensor"
)

// UnaryOp maps one compute-precision scalar to another. Implementations
// must be pure: kernels may apply them in any row order and rely on
// identical results for identical inputs.
type UnaryOp[C tensor.Float] interface {
	Apply(v C) C
}

// Func adapts a plain function to a UnaryOp.
type Func[C tensor.Float] func(C) C

// Apply calls the wrapped function.
func (f Func[C]) Apply(v C) C { return f(v) }

// PassThrough is the identity op, the default post-operation.
type PassThrough[C tensor.Float] struct{}

// Apply returns v unchanged.
func (PassThrough[C]) Apply(v C) C { return v }

// Negate flips the sign of every element.
type Negate[C tensor.Float] struct{}

// Apply returns -v.
func (Negate[C]) Apply(v C) C { return -v }

// Relu clamps negative values to zero.
type Relu[C tensor.Float] struct{}

// Apply returns max(v, 0).
func (Relu[C]) Apply(v C) C {
	if v < 0 {
		return 0
	}
	return v
}

// Sigmoid applies the logistic function 1 / (1 + exp(-v)).
type Sigmoid[C tensor.Float] struct{}

// Apply returns sigmoid(v).
func (Sigmoid[C]) Apply(v C) C {
	return C(1.0 / (1.0 + math.Exp(-float64(v))))
}

// Scale multiplies every element by a fixed factor.
type Scale[C tensor.Float] struct {
	Alpha C
}

// Apply returns Alpha * v.
func (s Scale[C]) Apply(v C) C { return s.Alpha * v }
