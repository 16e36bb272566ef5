// Package device defines the uniform invocation contract shared by the
// reference oracles and the accelerated kernels they validate: a capability
// check that is separate from execution, and an invoker that reports a
// timing signal.
package device

import "time"

// Config controls how an invoker times a kernel run.
// The zero value runs the kernel once and reports no timing, which is what
// verification wants; benchmarks set TimeKernel with warmup and repeats.
type Config struct {
	TimeKernel bool
	WarmupRuns int
	Repeats    int
}

// Operator is the capability-check half of the invocation contract.
// IsSupportedArgument must be consulted before running; invokers do not
// re-validate, matching the separate validate/execute phases of the
// operator family.
type Operator[A any] interface {
	IsSupportedArgument(arg A) bool
	TypeString() string
}

// Invoker executes an already-validated argument and returns the average
// wall time per run, or zero when timing is disabled.
type Invoker[A any] interface {
	Run(arg A, cfg Config) time.Duration
}

// Measure runs f according to cfg and returns the average duration per
// timed run. With TimeKernel unset it runs f exactly once and returns 0.
func Measure(cfg Config, f func()) time.Duration {
	if !cfg.TimeKernel {
		f()
		return 0
	}

	for i := 0; i < cfg.WarmupRuns; i++ {
		f()
	}

	repeats := cfg.Repeats
	if repeats < 1 {
		repeats = 1
	}

	start := time.Now()
	for i := 0; i < repeats; i++ {
		f()
	}
	return time.Since(start) / time.Duration(repeats)
}
