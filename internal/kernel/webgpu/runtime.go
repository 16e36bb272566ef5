// Package webgpu implements a WebGPU layernorm kernel that is validated
// against the reference oracle. Uses go-webgpu (github.com/go-webgpu/webgpu)
// for zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

func check(name string, err error) {
	if err != nil {
		panic(name + " error: " + err.Error())
	}
}

// Runtime owns the WebGPU instance, device, and queue, plus the shader and
// pipeline caches shared by kernel invocations.
type Runtime struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// NewRuntime initializes WebGPU.
// Returns an error if no WebGPU runtime or adapter is available; callers
// (and tests) treat that as "skip the GPU kernel", not as a failure.
func NewRuntime() (rt *Runtime, err error) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			rt = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instErr := wgpu.CreateInstance(nil)
	check("wgpu.CreateInstance", instErr)

	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Runtime{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Close releases all GPU resources.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for _, p := range rt.pipelines {
		p.Release()
	}
	for _, s := range rt.shaders {
		s.Release()
	}
	rt.device.Release()
	rt.adapter.Release()
	rt.instance.Release()
}

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached.
func (rt *Runtime) compileShader(name, code string) *wgpu.ShaderModule {
	rt.mu.RLock()
	if shader, exists := rt.shaders[name]; exists {
		rt.mu.RUnlock()
		return shader
	}
	rt.mu.RUnlock()

	shader := rt.device.CreateShaderModuleWGSL(code)

	rt.mu.Lock()
	rt.shaders[name] = shader
	rt.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (rt *Runtime) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	rt.mu.RLock()
	if pipeline, exists := rt.pipelines[name]; exists {
		rt.mu.RUnlock()
		return pipeline
	}
	rt.mu.RUnlock()

	// Auto layout (nil layout descriptor).
	pipeline := rt.device.CreateComputePipelineSimple(nil, shader, "main")

	rt.mu.Lock()
	rt.pipelines[name] = pipeline
	rt.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads initial data.
func (rt *Runtime) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := rt.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (rt *Runtime) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := rt.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer copies a GPU buffer back to CPU memory via a staging buffer.
func (rt *Runtime) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := rt.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := rt.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	rt.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(rt.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}
