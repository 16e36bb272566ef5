package layernorm

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verity-ml/verity/internal/device"
	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/tensor"
)

// newArg builds a float32-storage argument for an M x N input with the
// given epsilon and post-op. Output and statistics tensors start zeroed.
func newArg[C tensor.Float](t *testing.T, x, gamma, beta []float32, m, n int, eps C, op elementwise.UnaryOp[C]) *Argument[C] {
	t.Helper()

	xt, err := tensor.FromSlice(x, tensor.Shape{m, n})
	require.NoError(t, err)
	gt, err := tensor.FromSlice(gamma, tensor.Shape{n})
	require.NoError(t, err)
	bt, err := tensor.FromSlice(beta, tensor.Shape{n})
	require.NoError(t, err)

	y := tensor.Zeros[float32](tensor.Shape{m, n})
	mean := tensor.Zeros[float32](tensor.Shape{m})
	invStd := tensor.Zeros[float32](tensor.Shape{m})

	return MakeArgument(
		xt.Raw(), gt.Raw(), bt.Raw(),
		y.Raw(), mean.Raw(), invStd.Raw(),
		op,
		[]int{m, n}, []int{1}, eps,
	)
}

func onesZeros(n int) (gamma, beta []float32) {
	gamma = make([]float32, n)
	beta = make([]float32, n)
	for i := range gamma {
		gamma[i] = 1
	}
	return gamma, beta
}

// TestReference_Basic checks the concrete 2x3 scenario:
//
//	row 0: mean = (1+2+3)/3 = 2, var = (1+4+9)/3 - 4 = 2/3
//	row 1: mean = (4+5+6)/3 = 5, var = (16+25+36)/3 - 25 = 2/3
//	with eps = 0: inv_std = 1/sqrt(2/3) = 1.2247449
func TestReference_Basic(t *testing.T) {
	gamma, beta := onesZeros(3)
	arg := newArg[float32](t,
		[]float32{1, 2, 3, 4, 5, 6}, gamma, beta,
		2, 3, 0, elementwise.PassThrough[float32]{})

	op := Reference[float32]{}
	require.True(t, op.IsSupportedArgument(arg))
	require.NoError(t, arg.Validate())

	op.MakeInvoker().Run(arg, device.Config{})

	invStd := float32(1.0 / math.Sqrt(2.0/3.0))
	wantY := []float32{-invStd, 0, invStd, -invStd, 0, invStd}
	for i, want := range wantY {
		assert.InDelta(t, want, arg.Y.AsFloat32()[i], 1e-6, "Y[%d]", i)
	}

	assert.InDelta(t, 2.0, arg.SaveMean.AsFloat32()[0], 1e-6)
	assert.InDelta(t, 5.0, arg.SaveMean.AsFloat32()[1], 1e-6)
	assert.InDelta(t, invStd, arg.SaveInvStd.AsFloat32()[0], 1e-6)
	assert.InDelta(t, invStd, arg.SaveInvStd.AsFloat32()[1], 1e-6)
}

// TestReference_AllZeroInput: zero X, unit gamma, zero beta must yield zero
// Y, zero mean, and inv_std = 1/sqrt(epsilon).
func TestReference_AllZeroInput(t *testing.T) {
	const eps = float32(1e-5)
	gamma, beta := onesZeros(4)
	arg := newArg[float32](t,
		make([]float32, 3*4), gamma, beta,
		3, 4, eps, elementwise.PassThrough[float32]{})

	Reference[float32]{}.MakeInvoker().Run(arg, device.Config{})

	for i, v := range arg.Y.AsFloat32() {
		assert.Zerof(t, v, "Y[%d]", i)
	}
	want := float32(1.0 / math.Sqrt(float64(eps)))
	for i := 0; i < 3; i++ {
		assert.Zero(t, arg.SaveMean.AsFloat32()[i])
		assert.InDelta(t, want, arg.SaveInvStd.AsFloat32()[i], 1e-2)
	}
}

// TestReference_ZeroVarianceZeroEpsilon: the divide-by-zero is propagated,
// not clamped.
func TestReference_ZeroVarianceZeroEpsilon(t *testing.T) {
	gamma, beta := onesZeros(3)
	arg := newArg[float32](t,
		[]float32{7, 7, 7}, gamma, beta,
		1, 3, 0, elementwise.PassThrough[float32]{})

	Reference[float32]{}.MakeInvoker().Run(arg, device.Config{})

	assert.True(t, math.IsInf(float64(arg.SaveInvStd.AsFloat32()[0]), 1),
		"inv_std must be +Inf, got %v", arg.SaveInvStd.AsFloat32()[0])
	for i, v := range arg.Y.AsFloat32() {
		assert.True(t, math.IsNaN(float64(v)), "Y[%d] must be NaN (0 * Inf), got %v", i, v)
	}
}

// TestReference_GammaBeta: input [[2, 4]] with gamma [2, 3], beta [0.5, 1]:
//
//	mean = 3, var = (4+16)/2 - 9 = 1, inv_std = 1 (eps = 0)
//	y = [-1*2 + 0.5, 1*3 + 1] = [-1.5, 4]
func TestReference_GammaBeta(t *testing.T) {
	arg := newArg[float32](t,
		[]float32{2, 4}, []float32{2, 3}, []float32{0.5, 1},
		1, 2, 0, elementwise.PassThrough[float32]{})

	Reference[float32]{}.MakeInvoker().Run(arg, device.Config{})

	assert.InDelta(t, -1.5, arg.Y.AsFloat32()[0], 1e-6)
	assert.InDelta(t, 4.0, arg.Y.AsFloat32()[1], 1e-6)
	assert.InDelta(t, 1.0, arg.SaveInvStd.AsFloat32()[0], 1e-6)
}

// TestReference_PostOpAfterAffine: a negating post-op must produce exactly
// the negated affine result, and must be applied once per output element.
func TestReference_PostOpAfterAffine(t *testing.T) {
	x := []float32{1, 2, 3, 4, 5, 6}
	gamma := []float32{2, 1, 0.5}
	beta := []float32{0.1, -0.2, 0.3}

	identity := newArg[float32](t, x, gamma, beta, 2, 3, 1e-5, elementwise.PassThrough[float32]{})
	Reference[float32]{}.MakeInvoker().Run(identity, device.Config{})

	applications := 0
	counted := elementwise.Func[float32](func(v float32) float32 {
		applications++
		return -v
	})
	negated := newArg[float32](t, x, gamma, beta, 2, 3, 1e-5, counted)
	Reference[float32]{}.MakeInvoker().Run(negated, device.Config{})

	assert.Equal(t, 6, applications, "post-op must run exactly once per element")
	for i := range x {
		assert.Equal(t, -identity.Y.AsFloat32()[i], negated.Y.AsFloat32()[i], "Y[%d]", i)
	}
	// Saved statistics are not affected by the post-op.
	assert.Equal(t, identity.SaveMean.AsFloat32(), negated.SaveMean.AsFloat32())
	assert.Equal(t, identity.SaveInvStd.AsFloat32(), negated.SaveInvStd.AsFloat32())
}

// TestReference_StatisticsFormulas checks mean(row) == sum(row)/N and
// var(row) == sum(row²)/N − mean² against direct accumulation.
func TestReference_StatisticsFormulas(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const m, n = 5, 17
	const eps = float64(1e-6)

	x := make([]float32, m*n)
	for i := range x {
		x[i] = float32(rng.NormFloat64())
	}
	gamma, beta := onesZeros(n)

	arg := newArg[float64](t, x, gamma, beta, m, n, eps, elementwise.PassThrough[float64]{})
	Reference[float64]{}.MakeInvoker().Run(arg, device.Config{})

	for i := 0; i < m; i++ {
		var sum, sumSq float64
		for j := 0; j < n; j++ {
			v := float64(x[i*n+j])
			sum += v
			sumSq += v * v
		}
		mean := sum / n
		variance := sumSq/n - mean*mean

		assert.InDelta(t, mean, float64(arg.SaveMean.AsFloat32()[i]), 1e-5, "mean row %d", i)
		assert.InDelta(t, 1.0/math.Sqrt(variance+eps), float64(arg.SaveInvStd.AsFloat32()[i]), 1e-4, "inv_std row %d", i)
	}
}

// TestReference_Reconstruction: with nonzero variance, the original row is
// recoverable as (Y − beta)/gamma / inv_std + mean.
func TestReference_Reconstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const m, n = 4, 9

	x := make([]float32, m*n)
	for i := range x {
		x[i] = float32(rng.NormFloat64() * 3)
	}
	gamma := make([]float32, n)
	beta := make([]float32, n)
	for j := range gamma {
		gamma[j] = 0.5 + float32(rng.Float64())
		beta[j] = float32(rng.NormFloat64())
	}

	arg := newArg[float32](t, x, gamma, beta, m, n, 0, elementwise.PassThrough[float32]{})
	Reference[float32]{}.MakeInvoker().Run(arg, device.Config{})

	y := arg.Y.AsFloat32()
	for i := 0; i < m; i++ {
		mean := arg.SaveMean.AsFloat32()[i]
		invStd := arg.SaveInvStd.AsFloat32()[i]
		for j := 0; j < n; j++ {
			got := (y[i*n+j]-beta[j])/gamma[j]/invStd + mean
			assert.InDelta(t, x[i*n+j], got, 1e-3, "x[%d,%d]", i, j)
		}
	}
}

// TestReference_Determinism: two runs on identical inputs are bit-identical.
func TestReference_Determinism(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const m, n = 8, 33

	x := make([]float32, m*n)
	for i := range x {
		x[i] = float32(rng.NormFloat64())
	}
	gamma, beta := onesZeros(n)

	a := newArg[float32](t, x, gamma, beta, m, n, 1e-5, elementwise.PassThrough[float32]{})
	b := newArg[float32](t, x, gamma, beta, m, n, 1e-5, elementwise.PassThrough[float32]{})

	inv := Reference[float32]{}.MakeInvoker()
	inv.Run(a, device.Config{})
	inv.Run(b, device.Config{})

	require.True(t, bytes.Equal(a.Y.Data(), b.Y.Data()), "Y must be bit-identical")
	require.True(t, bytes.Equal(a.SaveMean.Data(), b.SaveMean.Data()))
	require.True(t, bytes.Equal(a.SaveInvStd.Data(), b.SaveInvStd.Data()))
}

// TestReference_ComputePrecision: float32 storage with float64 compute must
// accumulate in float64 and convert only on writes.
func TestReference_ComputePrecision(t *testing.T) {
	x := []float32{0.1, 0.2, 0.3}
	gamma, beta := onesZeros(3)

	arg := newArg[float64](t, x, gamma, beta, 1, 3, 1e-6, elementwise.PassThrough[float64]{})
	Reference[float64]{}.MakeInvoker().Run(arg, device.Config{})

	// Expected mean computed the same way: widen each stored float32, then
	// accumulate in float64 and narrow once at the write.
	want := float32((float64(x[0]) + float64(x[1]) + float64(x[2])) / 3)
	assert.Equal(t, want, arg.SaveMean.AsFloat32()[0])
}

// TestReference_Int32Storage: integer input storage converts element-wise
// into compute precision.
func TestReference_Int32Storage(t *testing.T) {
	xt, err := tensor.FromSlice([]int32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	gt, err := tensor.FromSlice([]float32{1, 1, 1}, tensor.Shape{3})
	require.NoError(t, err)
	bt, err := tensor.FromSlice([]float32{0, 0, 0}, tensor.Shape{3})
	require.NoError(t, err)

	y := tensor.Zeros[float32](tensor.Shape{2, 3})
	mean := tensor.Zeros[float32](tensor.Shape{2})
	invStd := tensor.Zeros[float32](tensor.Shape{2})

	arg := MakeArgument(
		xt.Raw(), gt.Raw(), bt.Raw(),
		y.Raw(), mean.Raw(), invStd.Raw(),
		elementwise.PassThrough[float32]{},
		[]int{2, 3}, []int{1}, float32(0),
	)
	require.NoError(t, arg.Validate())

	Reference[float32]{}.MakeInvoker().Run(arg, device.Config{})

	assert.InDelta(t, 2.0, mean.Data()[0], 1e-6)
	assert.InDelta(t, 5.0, mean.Data()[1], 1e-6)
}

// TestReference_Rejection: rank-1, rank-3, and wrong-axis reductions are
// rejected by the capability check.
func TestReference_Rejection(t *testing.T) {
	op := Reference[float32]{}

	cases := []struct {
		name       string
		lengths    []int
		reduceDims []int
	}{
		{"rank 1", []int{6}, []int{0}},
		{"rank 3", []int{2, 3, 4}, []int{2}},
		{"leading axis", []int{2, 3}, []int{0}},
		{"two axes", []int{2, 3}, []int{0, 1}},
		{"no axes", []int{2, 3}, []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			arg := &Argument[float32]{Lengths: tc.lengths, ReduceDims: tc.reduceDims}
			assert.False(t, op.IsSupportedArgument(arg))
		})
	}

	supported := &Argument[float32]{Lengths: []int{2, 3}, ReduceDims: []int{1}}
	assert.True(t, op.IsSupportedArgument(supported))
}

// TestArgument_Validate covers the explicit malformed-descriptor check.
func TestArgument_Validate(t *testing.T) {
	gamma, beta := onesZeros(3)
	good := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
		2, 3, 1e-5, elementwise.PassThrough[float32]{})
	require.NoError(t, good.Validate())

	t.Run("unsupported shape", func(t *testing.T) {
		bad := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
			2, 3, 1e-5, elementwise.PassThrough[float32]{})
		bad.ReduceDims = []int{0}
		assert.ErrorIs(t, bad.Validate(), ErrUnsupportedConfiguration)
	})

	t.Run("gamma length", func(t *testing.T) {
		bad := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
			2, 3, 1e-5, elementwise.PassThrough[float32]{})
		short := tensor.Zeros[float32](tensor.Shape{2})
		bad.Gamma = short.Raw()
		assert.ErrorIs(t, bad.Validate(), ErrMalformedDescriptor)
	})

	t.Run("statistics length", func(t *testing.T) {
		bad := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
			2, 3, 1e-5, elementwise.PassThrough[float32]{})
		long := tensor.Zeros[float32](tensor.Shape{5})
		bad.SaveMean = long.Raw()
		assert.ErrorIs(t, bad.Validate(), ErrMalformedDescriptor)
	})

	t.Run("nil tensor", func(t *testing.T) {
		bad := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
			2, 3, 1e-5, elementwise.PassThrough[float32]{})
		bad.Y = nil
		assert.ErrorIs(t, bad.Validate(), ErrMalformedDescriptor)
	})

	t.Run("nil post-op", func(t *testing.T) {
		bad := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
			2, 3, 1e-5, elementwise.PassThrough[float32]{})
		bad.YElementwiseOp = nil
		assert.ErrorIs(t, bad.Validate(), ErrMalformedDescriptor)
	})
}

// TestReference_TimedRun: the timing signal is zero untimed and positive
// when requested.
func TestReference_TimedRun(t *testing.T) {
	gamma, beta := onesZeros(3)
	arg := newArg[float32](t, []float32{1, 2, 3, 4, 5, 6}, gamma, beta,
		2, 3, 1e-5, elementwise.PassThrough[float32]{})

	inv := Reference[float32]{}.MakeInvoker()
	assert.Zero(t, inv.Run(arg, device.Config{}))
	assert.Greater(t, int64(inv.Run(arg, device.Config{TimeKernel: true, Repeats: 2})), int64(0))
}

func TestReference_TypeString(t *testing.T) {
	assert.Equal(t, "ReferenceLayernorm", Reference[float32]{}.TypeString())
}
