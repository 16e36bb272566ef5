package webgpu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkpkg "github.com/verity-ml/verity/internal/check"
	"github.com/verity-ml/verity/internal/device"
	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/layernorm"
	"github.com/verity-ml/verity/internal/tensor"
)

// newRuntime skips the test when no WebGPU runtime or adapter is present.
func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(rt.Close)
	return rt
}

func newArg(t *testing.T, m, n int, eps float32, seed int64) *layernorm.Argument[float32] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	x := tensor.Randn[float32](tensor.Shape{m, n}, rng)
	gamma := tensor.Randn[float32](tensor.Shape{n}, rng)
	beta := tensor.Randn[float32](tensor.Shape{n}, rng)
	y := tensor.Zeros[float32](tensor.Shape{m, n})
	mean := tensor.Zeros[float32](tensor.Shape{m})
	invStd := tensor.Zeros[float32](tensor.Shape{m})

	return layernorm.MakeArgument(
		x.Raw(), gamma.Raw(), beta.Raw(),
		y.Raw(), mean.Raw(), invStd.Raw(),
		elementwise.PassThrough[float32]{},
		[]int{m, n}, []int{1}, eps,
	)
}

// TestLayernorm_MatchesReference runs the GPU kernel against the oracle on
// random input and checks the outputs within the GPU parity tolerance.
func TestLayernorm_MatchesReference(t *testing.T) {
	rt := newRuntime(t)

	const m, n = 300, 257 // more rows than one workgroup
	gpu := newArg(t, m, n, 1e-5, 1)
	ref := newArg(t, m, n, 1e-5, 1)

	kernel := NewLayernorm(rt)
	require.True(t, kernel.IsSupportedArgument(gpu))
	require.NoError(t, gpu.Validate())

	kernel.MakeInvoker().Run(gpu, device.Config{})
	layernorm.Reference[float32]{}.MakeInvoker().Run(ref, device.Config{})

	tol, err := checkpkg.KernelTolerance(kernel.TypeString())
	require.NoError(t, err)

	for name, pair := range map[string][2]*tensor.RawTensor{
		"y":            {gpu.Y, ref.Y},
		"save_mean":    {gpu.SaveMean, ref.SaveMean},
		"save_inv_std": {gpu.SaveInvStd, ref.SaveInvStd},
	} {
		res, err := checkpkg.Compare(name, pair[0], pair[1], tol)
		require.NoError(t, err)
		assert.True(t, res.Passed, "%s: max abs err %g, max rel err %g, first mismatch %d",
			name, res.MaxAbsErr, res.MaxRelErr, res.FirstMismatch)
	}
}

// TestLayernorm_SupportedArgument: the GPU kernel narrows the capability
// check beyond shape.
func TestLayernorm_SupportedArgument(t *testing.T) {
	kernel := Layernorm{}

	good := newArg(t, 2, 3, 1e-5, 2)
	assert.True(t, kernel.IsSupportedArgument(good))

	wrongAxis := newArg(t, 2, 3, 1e-5, 2)
	wrongAxis.ReduceDims = []int{0}
	assert.False(t, kernel.IsSupportedArgument(wrongAxis))

	postOp := newArg(t, 2, 3, 1e-5, 2)
	postOp.YElementwiseOp = elementwise.Negate[float32]{}
	assert.False(t, kernel.IsSupportedArgument(postOp), "only identity post-op runs on GPU")

	f64 := newArg(t, 2, 3, 1e-5, 2)
	f64.X = tensor.Zeros[float64](tensor.Shape{2, 3}).Raw()
	assert.False(t, kernel.IsSupportedArgument(f64), "float32 storage only")
}

func TestLayernorm_TypeString(t *testing.T) {
	assert.Equal(t, "WebGpuLayernorm", Layernorm{}.TypeString())
}
