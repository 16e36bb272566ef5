// Package check compares kernel outputs against the reference oracle and
// aggregates the results into a verification report.
package check

import "fmt"

// Tolerance defines acceptable numeric drift versus the oracle's outputs.
// Zero tolerances demand bit-approximate equality (every element exactly
// equal after widening to float64).
type Tolerance struct {
	Abs float64 `json:"abs" yaml:"abs"`
	Rel float64 `json:"rel" yaml:"rel"`
}

// Exact is the zero-drift tolerance used for CPU kernels that share the
// oracle's arithmetic.
var Exact = Tolerance{}

// KernelTolerances defines per-kernel parity targets. CPU kernels reuse the
// reference arithmetic row-for-row and must match exactly; GPU kernels may
// drift in the low bits from reordered float operations.
var KernelTolerances = map[string]Tolerance{
	"ReferenceLayernorm": Exact,
	"ParallelLayernorm":  Exact,
	"WebGpuLayernorm":    {Abs: 1e-5, Rel: 1e-4},
}

// KernelTolerance looks up the parity target for a kernel by type string.
func KernelTolerance(name string) (Tolerance, error) {
	t, ok := KernelTolerances[name]
	if !ok {
		return Tolerance{}, fmt.Errorf("check: no tolerance configured for kernel %q", name)
	}
	return t, nil
}

// Within reports whether got is acceptably close to want: either within Abs
// absolute error, or within Rel relative to |want|.
func (t Tolerance) Within(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff <= t.Abs {
		return true
	}

	ref := want
	if ref < 0 {
		ref = -ref
	}
	return diff <= t.Rel*ref
}
