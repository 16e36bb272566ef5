package webgpu

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/verity-ml/verity/internal/device"
	"github.com/verity-ml/verity/internal/elementwise"
	"github.com/verity-ml/verity/internal/layernorm"
	"github.com/verity-ml/verity/internal/tensor"
)

// Layernorm is the GPU counterpart to the reference oracle. It computes in
// f32 on device, so it supports float32 storage and compute only, and the
// shader carries no user code, so only the identity post-op is accepted.
type Layernorm struct {
	rt *Runtime
}

// NewLayernorm creates the kernel on an initialized runtime.
func NewLayernorm(rt *Runtime) Layernorm {
	return Layernorm{rt: rt}
}

// TypeString identifies the operator in logs and reports.
func (Layernorm) TypeString() string { return "WebGpuLayernorm" }

// IsSupportedArgument narrows the shared capability check: rank-2 trailing
// reduction, all-float32 tensors, identity post-op.
func (Layernorm) IsSupportedArgument(arg *layernorm.Argument[float32]) bool {
	ref := layernorm.Reference[float32]{}
	if !ref.IsSupportedArgument(arg) {
		return false
	}

	for _, t := range []*tensor.RawTensor{arg.X, arg.Gamma, arg.Beta, arg.Y, arg.SaveMean, arg.SaveInvStd} {
		if t == nil || t.DType() != tensor.Float32 {
			return false
		}
	}

	_, identity := arg.YElementwiseOp.(elementwise.PassThrough[float32])
	return identity
}

// MakeInvoker returns the invoker for this operator.
func (l Layernorm) MakeInvoker() LayernormInvoker {
	return LayernormInvoker{rt: l.rt}
}

// LayernormInvoker dispatches the layernorm shader. Like every invoker in
// the family it does not re-validate; GPU submission failures panic the way
// the rest of the runtime's GPU plumbing does.
type LayernormInvoker struct {
	rt *Runtime
}

// Run executes the kernel and returns the average wall time per run
// (zero unless cfg.TimeKernel). Timing includes buffer upload and readback.
func (inv LayernormInvoker) Run(arg *layernorm.Argument[float32], cfg device.Config) time.Duration {
	return inv.rt.runLayernorm(arg, cfg)
}

func (rt *Runtime) runLayernorm(arg *layernorm.Argument[float32], cfg device.Config) time.Duration {
	return device.Measure(cfg, func() {
		m := arg.Lengths[0]
		n := arg.Lengths[1]

		shader := rt.compileShader("layernorm", layernormShader)
		pipeline := rt.getOrCreatePipeline("layernorm", shader)

		bufferX := rt.createBuffer(arg.X.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer bufferX.Release()
		bufferGamma := rt.createBuffer(arg.Gamma.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer bufferGamma.Release()
		bufferBeta := rt.createBuffer(arg.Beta.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer bufferBeta.Release()

		//nolint:gosec // G115: Safe conversions, byte sizes are non-negative
		ySize := uint64(arg.Y.ByteSize())
		//nolint:gosec // G115: Safe conversions, byte sizes are non-negative
		statSize := uint64(arg.SaveMean.ByteSize())

		outUsage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
		bufferY := rt.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: outUsage, Size: ySize})
		defer bufferY.Release()
		bufferMean := rt.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: outUsage, Size: statSize})
		defer bufferMean.Release()
		bufferInvStd := rt.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: outUsage, Size: statSize})
		defer bufferInvStd.Release()

		// Params uniform: m, n, epsilon (16-byte aligned).
		params := make([]byte, 16)
		//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
		binary.LittleEndian.PutUint32(params[0:4], uint32(m))
		//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
		binary.LittleEndian.PutUint32(params[4:8], uint32(n))
		binary.LittleEndian.PutUint32(params[8:12], math.Float32bits(arg.Epsilon))
		bufferParams := rt.createUniformBuffer(params)
		defer bufferParams.Release()

		bindGroupLayout := pipeline.GetBindGroupLayout(0)
		bindGroup := rt.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, bufferX, 0, uint64(arg.X.ByteSize())),
			wgpu.BufferBindingEntry(1, bufferGamma, 0, uint64(arg.Gamma.ByteSize())),
			wgpu.BufferBindingEntry(2, bufferBeta, 0, uint64(arg.Beta.ByteSize())),
			wgpu.BufferBindingEntry(3, bufferY, 0, ySize),
			wgpu.BufferBindingEntry(4, bufferMean, 0, statSize),
			wgpu.BufferBindingEntry(5, bufferInvStd, 0, statSize),
			wgpu.BufferBindingEntry(6, bufferParams, 0, 16),
		})
		defer bindGroup.Release()

		encoder := rt.device.CreateCommandEncoder(nil)
		computePass := encoder.BeginComputePass(nil)

		computePass.SetPipeline(pipeline)
		computePass.SetBindGroup(0, bindGroup, nil)

		// One thread per row.
		//nolint:gosec // G115: Safe conversion, workgroup count is non-negative
		workgroups := uint32((m + layernormWorkgroupSize - 1) / layernormWorkgroupSize)
		computePass.DispatchWorkgroups(workgroups, 1, 1)
		computePass.End()

		cmdBuffer := encoder.Finish(nil)
		rt.queue.Submit(cmdBuffer)

		yData, err := rt.readBuffer(bufferY, ySize)
		check("readBuffer(y)", err)
		meanData, err := rt.readBuffer(bufferMean, statSize)
		check("readBuffer(save_mean)", err)
		invStdData, err := rt.readBuffer(bufferInvStd, statSize)
		check("readBuffer(save_inv_std)", err)

		copy(arg.Y.Data(), yData)
		copy(arg.SaveMean.Data(), meanData)
		copy(arg.SaveInvStd.Data(), invStdData)
	})
}

// Compile-time checks against the shared invocation contract.
var (
	_ device.Operator[*layernorm.Argument[float32]] = Layernorm{}
	_ device.Invoker[*layernorm.Argument[float32]]  = LayernormInvoker{}
)
