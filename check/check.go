// Copyright 2026 Verity ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package check provides the public API for comparing kernel outputs against
// the reference oracle and aggregating the results into a report.
package check

import (
	"github.com/verity-ml/verity/internal/check"
	"github.com/verity-ml/verity/internal/tensor"
)

// Tolerance defines acceptable numeric drift versus the oracle's outputs.
type Tolerance = check.Tolerance

// Exact is the zero-drift tolerance used for CPU kernels that share the
// oracle's arithmetic.
var Exact = check.Exact

// Result records how one tensor compared against its reference counterpart.
type Result = check.Result

// Env describes the host a verification run executed on.
type Env = check.Env

// Report aggregates kernel comparison results for one verification run.
type Report = check.Report

// KernelTolerance looks up the parity target for a kernel by type string.
func KernelTolerance(name string) (Tolerance, error) {
	return check.KernelTolerance(name)
}

// Compare widens both tensors element-wise to float64 and checks got
// against want under tol.
func Compare(name string, got, want *tensor.RawTensor, tol Tolerance) (Result, error) {
	return check.Compare(name, got, want, tol)
}

// NewReport creates an empty report for one shape/epsilon configuration.
func NewReport(shape []int, epsilon float64, compute string) *Report {
	return check.NewReport(shape, epsilon, compute)
}

// HostEnv captures the current host.
func HostEnv() Env {
	return check.HostEnv()
}
