// Package layernorm implements row-wise layer normalization over a 2-D
// input: the sequential reference oracle, a row-parallel CPU counterpart,
// and the argument descriptor both consume.
package layernorm

import (
	"errors"
	"fmt"

	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/tensor"
)

// Error kinds reported by Validate. IsSupportedArgument stays a plain
// capability check; these exist for callers that want a diagnosable error
// instead of a bool.
var (
	ErrUnsupportedConfiguration = errors.New("layernorm: unsupported configuration")
	ErrMalformedDescriptor      = errors.New("layernorm: malformed descriptor")
)

// Argument captures one fully-specified invocation of the algorithm.
//
// X, Gamma, and Beta are read-only; Y, SaveMean, and SaveInvStd are owned by
// the caller and written in place. C is the compute precision: every element
// is converted into C when read and back to the tensor's storage precision
// when written. An Argument is built immediately before a run and discarded
// after it; it has no lifecycle of its own.
type Argument[C tensor.Float] struct {
	X          *tensor.RawTensor // input, shape (M, N)
	Gamma      *tensor.RawTensor // scale, length N
	Beta       *tensor.RawTensor // shift, length N
	Y          *tensor.RawTensor // output, shape (M, N), written in place
	SaveMean   *tensor.RawTensor // per-row mean, length M
	SaveInvStd *tensor.RawTensor // per-row 1/sqrt(var+eps), length M

	YElementwiseOp elementwise.UnaryOp[C]

	Lengths    []int // (M, N)
	ReduceDims []int // must be exactly {1}
	Epsilon    C
}

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
	return &Argument[C]{
		X:              x,
		Gamma:          gamma,
		Beta:           beta,
		Y:              y,
		SaveMean:       saveMean,
		SaveInvStd:     saveInvStd,
		YElementwiseOp: op,
		Lengths:        lengths,
		ReduceDims:     reduceDims,
		Epsilon:        epsilon,
	}
}

// Validate reports whether the descriptor is internally consistent: the
// shape configuration must be supported, and every buffer length must agree
// with Lengths. Run never calls this; callers that skip it accept undefined
// results on malformed descriptors.
func (a *Argument[C]) Validate() error {
	if !supportedShape(a.Lengths, a.ReduceDims) {
		return fmt.Errorf("%w: lengths %v, reduce dims %v (want rank 2, reduce {1})",
			ErrUnsupportedConfiguration, a.Lengths, a.ReduceDims)
	}

	m, n := a.Lengths[0], a.Lengths[1]

	for _, tc := range []struct {
		name string
		t    *tensor.RawTensor
		want int
	}{
		{"x", a.X, m * n},
		{"gamma", a.Gamma, n},
		{"beta", a.Beta, n},
		{"y", a.Y, m * n},
		{"save_mean", a.SaveMean, m},
		{"save_inv_std", a.SaveInvStd, m},
	} {
		if tc.t == nil {
			return fmt.Errorf("%w: %s tensor is nil", ErrMalformedDescriptor, tc.name)
		}
		if got := tc.t.NumElements(); got != tc.want {
			return fmt.Errorf("%w: %s has %d elements, want %d",
				ErrMalformedDescriptor, tc.name, got, tc.want)
		}
	}

	if a.YElementwiseOp == nil {
		return fmt.Errorf("%w: elementwise op is nil", ErrMalformedDescriptor)
	}

	return nil
}

// supportedShape is the shared capability check: rank 2 with a single
// reduction over the trailing axis.
func supportedShape(lengths, reduceDims []int) bool {
	if len(lengths) != 2 {
		return false
	}
	if len(reduceDims) != 1 {
		return false
	}
	return reduceDims[0] == 1
}
