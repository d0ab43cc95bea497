// Package compute runs broad-phase collision culling on the GPU via WebGPU.
// It is independent of raylib's OpenGL context and optional: callers fall
// back to the CPU when Initialize fails.
package compute

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// System owns the WebGPU device used for compute work.
type System struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     AdapterInfo

	mu        sync.Mutex
	pipelines map[string]*Pipeline
}

// Pipeline is a compiled compute shader with an explicit bind group layout.
type Pipeline struct {
	shader   *wgpu.ShaderModule
	layout   *wgpu.BindGroupLayout
	pipeLay  *wgpu.PipelineLayout
	pipeline *wgpu.ComputePipeline
}

// Buffer wraps a GPU buffer.
type Buffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

var (
	globalSystem *System
	initOnce     sync.Once
	initErr      error
)

// AdapterInfo describes the GPU in use.
type AdapterInfo struct {
	Name, Vendor, Backend, DeviceType, Driver string
}

func (i AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s | %s", i.Backend, i.Vendor, i.Name)
}

// Initialize opens the shared device on first use and describes it. Later
// calls return the first result.
func Initialize() (AdapterInfo, error) {
	initOnce.Do(func() {
		globalSystem, initErr = newSystem()
	})
	if initErr != nil {
		return AdapterInfo{}, initErr
	}
	return globalSystem.info, nil
}

// Get returns the shared system, or nil until Initialize succeeds.
func Get() *System { return globalSystem }

func newSystem() (*System, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	ai := adapter.GetInfo()
	info := AdapterInfo{
		Name:       ai.Name,
		Vendor:     ai.VendorName,
		Backend:    ai.BackendType.String(),
		DeviceType: ai.AdapterType.String(),
		Driver:     ai.DriverDescription,
	}
	return &System{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     device.GetQueue(),
		info:      info,
		pipelines: make(map[string]*Pipeline),
	}, nil
}

// pipeline compiles wgsl once per name with the given binding types, in
// @binding order.
func (s *System) pipeline(name, wgsl string, bindings []wgpu.BufferBindingType) (*Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pipelines[name]; ok {
		return p, nil
	}

	entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
	for i, t := range bindings {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: t},
		}
	}
	layout, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   name + "_layout",
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout: %w", err)
	}

	pipeLay, err := s.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name + "_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		layout.Release()
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	shader, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if err != nil {
		pipeLay.Release()
		layout.Release()
		return nil, fmt.Errorf("failed to create shader module: %w", err)
	}

	cp, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  name,
		Layout: pipeLay,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		shader.Release()
		pipeLay.Release()
		layout.Release()
		return nil, fmt.Errorf("failed to create compute pipeline: %w", err)
	}

	p := &Pipeline{shader: shader, layout: layout, pipeLay: pipeLay, pipeline: cp}
	s.pipelines[name] = p
	return p, nil
}

func (s *System) createBuffer(label string, size uint64, usage wgpu.BufferUsage) (*Buffer, error) {
	buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}
	return &Buffer{buffer: buf, size: size}, nil
}

func (s *System) writeBuffer(buf *Buffer, data []byte) {
	s.queue.WriteBuffer(buf.buffer, 0, data)
}

// dispatch binds bufs in @binding order and runs groups workgroups.
func (s *System) dispatch(p *Pipeline, groups uint32, bufs ...*Buffer) error {
	entries := make([]wgpu.BindGroupEntry, len(bufs))
	for i, b := range bufs {
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b.buffer, Size: b.size}
	}
	bindGroup, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "compute_bind_group",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groups, 1, 1)
	pass.End()
	pass.Release()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	defer commands.Release()

	s.queue.Submit(commands)
	return nil
}

// readBuffer copies the first size bytes of buf back to the CPU. buf must
// have been created with BufferUsageCopySrc.
func (s *System) readBuffer(buf *Buffer, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	size = min(size, buf.size)

	staging, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "staging_read",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(buf.buffer, 0, staging, 0, size)
	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish encoder: %w", err)
	}
	s.queue.Submit(commands)
	commands.Release()

	done := make(chan error, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("failed to map buffer: %v", status)
		} else {
			done <- nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.device.Poll(true, nil)
	if err := <-done; err != nil {
		return nil, err
	}

	mapped := staging.GetMappedRange(0, uint(size))
	result := make([]byte, len(mapped))
	copy(result, mapped)
	staging.Unmap()
	return result, nil
}

// Release frees all GPU resources.
func (s *System) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pipelines {
		p.pipeline.Release()
		p.shader.Release()
		p.pipeLay.Release()
		p.layout.Release()
	}
	s.pipelines = nil

	s.queue.Release()
	s.device.Release()
	s.adapter.Release()
	s.instance.Release()
}

// Release frees the buffer's GPU memory.
func (b *Buffer) Release() {
	b.buffer.Release()
}
