package layernorm

import (
	"time"

	"github.com/verity-ml/verity/internal/device"
	"github.com/verity-ml/verity/internal/parallel"
	"github.com/verity-ml/verity/internal/tensor"
)

// Parallel is the row-parallel CPU counterpart to Reference. Rows are
// independent, so it fuses both passes per row and distributes rows across
// goroutines. Per-row arithmetic is identical to the reference, which makes
// a same-precision run bit-identical to the oracle — the property the
// verification harness asserts.
type Parallel[C tensor.Float] struct {
	Pool parallel.Config
}

// NewParallel creates the kernel with the default worker pool.
func NewParallel[C tensor.Float]() Parallel[C] {
	return Parallel[C]{Pool: parallel.DefaultConfig()}
}

// IsSupportedArgument mirrors the reference capability check.
func (Parallel[C]) IsSupportedArgument(arg *Argument[C]) bool {
	return supportedShape(arg.Lengths, arg.ReduceDims)
}

// TypeString identifies the operator in logs and reports.
func (Parallel[C]) TypeString() string { return "ParallelLayernorm" }

// MakeInvoker returns the invoker for this operator.
func (p Parallel[C]) MakeInvoker() ParallelInvoker[C] {
	return ParallelInvoker[C]{pool: p.Pool}
}

// ParallelInvoker runs the fused kernel. Like the reference invoker, it
// performs no re-validation.
type ParallelInvoker[C tensor.Float] struct {
	pool parallel.Config
}

// Run executes the kernel and returns the average wall time per run
// (zero unless cfg.TimeKernel).
func (inv ParallelInvoker[C]) Run(arg *Argument[C], cfg device.Config) time.Duration {
	return device.Measure(cfg, func() { runParallel(arg, inv.pool) })
}

func runParallel[C tensor.Float](arg *Argument[C], pool parallel.Config) {
	m := arg.Lengths[0]
	n := arg.Lengths[1]

	parallel.For(m, pool, func(i int) {
		var sum, sumSq C
		for j := 0; j < n; j++ {
			x := tensor.ValueAt[C](arg.X, i*n+j)
			sum += x
			sumSq += x * x
		}
		mean := sum / C(n)
		variance := sumSq/C(n) - mean*mean

		divisor := C(1) / sqrt(variance+arg.Epsilon)

		for j := 0; j < n; j++ {
			x := tensor.ValueAt[C](arg.X, i*n+j)
			gamma := tensor.ValueAt[C](arg.Gamma, j)
			beta := tensor.ValueAt[C](arg.Beta, j)

			y := (x - mean) * divisor
			y = y*gamma + beta
			y = arg.YElementwiseOp.Apply(y)
			tensor.SetValueAt(arg.Y, i*n+j, y)
		}

		tensor.SetValueAt(arg.SaveMean, i, mean)
		tensor.SetValueAt(arg.SaveInvStd, i, divisor)
	})
}

// Compile-time checks against the shared invocation contract.
var (
	_ device.Operator[*Argument[float32]] = Parallel[float32]{}
	_ device.Invoker[*Argument[float32]]  = ParallelInvoker[float32]{}
)
