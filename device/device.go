// Copyright 2026 Verity ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device provides the public invocation contract shared by every
// Verity kernel: the operator/invoker split and the timing configuration.
package device

import (
	"time"

	"github.com/verity-ml/verity/internal/device"
)

// Config controls how an invoker runs a kernel.
type Config = device.Config

// Operator is the validation side of a kernel: a capability check plus a
// stable identifier.
type Operator[A any] = device.Operator[A]

// Invoker is the execution side of a kernel.
type Invoker[A any] = device.Invoker[A]

// Measure runs f per cfg and returns the average wall time per run
// (zero unless cfg.TimeKernel).
func Measure(cfg Config, f func()) time.Duration {
	return device.Measure(cfg, f)
}
