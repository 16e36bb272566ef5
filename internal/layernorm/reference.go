package layernorm

import (
	"math"
	"time"

	"github.com/verity-ml/verity/internal/device"
	"github.com/verity-ml/verity/internal/tensor"
)

// Reference is the sequential oracle. Its output is treated as ground truth
// when validating accelerated implementations of the same operation.
//
// The variance uses the naive E[x²] − E[x]² formula on purpose: the oracle
// must match the reduction strategy of the kernels it validates, so a fused
// or Welford variant would diverge from them in the low bits.
type Reference[C tensor.Float] struct{}

// IsSupportedArgument returns true only for a rank-2 shape reduced over the
// trailing axis. This is a capability check, not an execution error; callers
// check it before invoking.
func (Reference[C]) IsSupportedArgument(arg *Argument[C]) bool {
	return supportedShape(arg.Lengths, arg.ReduceDims)
}

// TypeString identifies the operator in logs and reports.
func (Reference[C]) TypeString() string { return "ReferenceLayernorm" }

// MakeInvoker returns the invoker for this operator.
func (Reference[C]) MakeInvoker() Invoker[C] { return Invoker[C]{} }

// Invoker runs the reference algorithm against a validated argument.
// It performs no re-validation; the caller is responsible for
// IsSupportedArgument.
type Invoker[C tensor.Float] struct{}

// Run executes the two-pass computation and returns the average wall time
// per run (zero unless cfg.TimeKernel).
func (Invoker[C]) Run(arg *Argument[C], cfg device.Config) time.Duration {
	return device.Measure(cfg, func() { runReference(arg) })
}

// runReference is the numeric core.
//
// Pass 1 accumulates per-row sums and sums of squares in compute precision C
// and derives mean and variance. Pass 2 normalizes, applies the affine
// transform and the elementwise post-op, and stores the per-row mean and
// inverse standard deviation. Conversions happen only at reads (ValueAt)
// and writes (SetValueAt).
func runReference[C tensor.Float](arg *Argument[C]) {
	m := arg.Lengths[0]
	n := arg.Lengths[1]

	mean := make([]C, m)
	variance := make([]C, m)

	for i := 0; i < m; i++ {
		var sum, sumSq C
		for j := 0; j < n; j++ {
			x := tensor.ValueAt[C](arg.X, i*n+j)
			sum += x
			sumSq += x * x
		}
		mean[i] = sum / C(n)
		variance[i] = sumSq/C(n) - mean[i]*mean[i]
	}

	for i := 0; i < m; i++ {
		// Epsilon=0 with zero variance divides by zero here; the resulting
		// Inf/NaN is propagated, not clamped.
		divisor := C(1) / sqrt(variance[i]+arg.Epsilon)

		for j := 0; j < n; j++ {
			x := tensor.ValueAt[C](arg.X, i*n+j)
			gamma := tensor.ValueAt[C](arg.Gamma, j)
			beta := tensor.ValueAt[C](arg.Beta, j)

			y := (x - mean[i]) * divisor
			y = y*gamma + beta
			y = arg.YElementwiseOp.Apply(y)
			tensor.SetValueAt(arg.Y, i*n+j, y)
		}

		tensor.SetValueAt(arg.SaveMean, i, mean[i])
		tensor.SetValueAt(arg.SaveInvStd, i, divisor)
	}
}

func sqrt[C tensor.Float](v C) C {
	return C(math.Sqrt(float64(v)))
}

// Compile-time checks against the shared invocation contract.
var (
	_ device.Operator[*Argument[float32]] = Reference[float32]{}
	_ device.Invoker[*Argument[float32]]  = Invoker[float32]{}
)
