package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/verity-ml/verity/internal/device"
	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/kernel/webgpu"
	"github.com/verity-ml/verity/internal/layernorm"
	"github.com/verity-ml/verity/internal/tensor"
)

func benchCmd() *cli.Command {
	var (
		rows    int64
		cols    int64
		epsilon float64
		warmup  int64
		repeats int64
		seed    int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time each kernel on one configuration",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "rows", Aliases: []string{"m"}, Value: 4096, Usage: "number of rows M", Destination: &rows},
			&cli.Int64Flag{Name: "cols", Aliases: []string{"n"}, Value: 1024, Usage: "number of features N", Destination: &cols},
			&cli.Float64Flag{Name: "epsilon", Value: 1e-5, Usage: "variance epsilon", Destination: &epsilon},
			&cli.Int64Flag{Name: "warmup", Value: 2, Usage: "untimed warmup runs", Destination: &warmup},
			&cli.Int64Flag{Name: "repeats", Value: 10, Usage: "timed runs to average over", Destination: &repeats},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "rng seed for input generation", Destination: &seed},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runBench(int(rows), int(cols), float32(epsilon), device.Config{
				TimeKernel: true,
				WarmupRuns: int(warmup),
				Repeats:    int(repeats),
			}, seed)
		},
	}
}

func runBench(m, n int, epsilon float32, cfg device.Config, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	x := tensor.Randn[float32](tensor.Shape{m, n}, rng)
	gamma := tensor.Randn[float32](tensor.Shape{n}, rng)
	beta := tensor.Randn[float32](tensor.Shape{n}, rng)

	newArg := func() *layernorm.Argument[float32] {
		return layernorm.MakeArgument(
			x.Raw(), gamma.Raw(), beta.Raw(),
			tensor.Zeros[float32](tensor.Shape{m, n}).Raw(),
			tensor.Zeros[float32](tensor.Shape{m}).Raw(),
			tensor.Zeros[float32](tensor.Shape{m}).Raw(),
			elementwise.PassThrough[float32]{},
			[]int{m, n}, []int{1}, epsilon,
		)
	}

	fmt.Printf("bench shape=[%d %d] epsilon=%g warmup=%d repeats=%d\n",
		m, n, epsilon, cfg.WarmupRuns, cfg.Repeats)

	ref := layernorm.Reference[float32]{}
	arg := newArg()
	if !ref.IsSupportedArgument(arg) {
		return fmt.Errorf("%w: lengths %v reduce %v", layernorm.ErrUnsupportedConfiguration,
			arg.Lengths, arg.ReduceDims)
	}
	printTiming(ref.TypeString(), m, ref.MakeInvoker().Run(arg, cfg))

	par := layernorm.NewParallel[float32]()
	printTiming(par.TypeString(), m, par.MakeInvoker().Run(newArg(), cfg))

	if rt, err := webgpu.NewRuntime(); err == nil {
		defer rt.Close()
		kernel := webgpu.NewLayernorm(rt)
		if gpuArg := newArg(); kernel.IsSupportedArgument(gpuArg) {
			printTiming(kernel.TypeString(), m, kernel.MakeInvoker().Run(gpuArg, cfg))
		}
	} else {
		fmt.Printf("  %-24s unavailable (%v)\n", "WebGpuLayernorm", err)
	}

	return nil
}

func printTiming(kernel string, m int, avg time.Duration) {
	rowsPerSec := 0.0
	if avg > 0 {
		rowsPerSec = float64(m) / avg.Seconds()
	}
	fmt.Printf("  %-24s avg=%-14s %12.0f rows/s\n", kernel, avg, rowsPerSec)
}
