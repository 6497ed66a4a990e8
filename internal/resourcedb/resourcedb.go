// Package resourcedb implements the GPU-resident resource database: four
// named sub-allocators (vertex/index/staging/uniform) each bound to a
// single vk.Buffer + vk.DeviceMemory pair, staged-transfer orchestration for
// vertex/index uploads, and pipeline + descriptor-set lifecycle for
// materials. It sits directly on top of dieselvk (the device/pipeline/
// descriptor wrappers) and vkmem (the allocation algorithm), and is what the
// collector systems (package collectors) and the frame loop (package
// renderer) drive every tick.
package resourcedb

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/andewx/dieselvk/asche"
	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/config"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/resource"
	"github.com/andewx/dieselvk/internal/vkmem"
	vk "github.com/vulkan-go/vulkan"
)

// gpuBuffer pairs one vkmem.Allocator's accounting with the single real
// vk.Buffer/vk.DeviceMemory it carves allocations out of. Host-visible
// buffers (staging, uniform) are mapped once for their entire lifetime
// rather than mapped/unmapped per transfer.
type gpuBuffer struct {
	device vk.Device
	buffer vk.Buffer
	memory vk.DeviceMemory
	alloc  *vkmem.Allocator
	mapped unsafe.Pointer
}

func newGPUBuffer(device vk.Device, memProps vk.PhysicalDeviceMemoryProperties, size uint64, usage vk.BufferUsageFlagBits, properties vk.MemoryPropertyFlagBits) (*gpuBuffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(device, &vk.BufferCreateInfo{
		SType: vk.StructureTypeBufferCreateInfo,
		Size:  vk.DeviceSize(size),
		Usage: vk.BufferUsageFlags(usage),
	}, nil, &buffer)
	if err := asche.CheckResult(ret, "CreateBuffer"); err != nil {
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &memReqs)
	memReqs.Deref()

	memType, ok := dieselvk.FindMemoryType(memProps, memReqs.MemoryTypeBits, properties)
	if !ok {
		vk.DestroyBuffer(device, buffer, nil)
		return nil, fmt.Errorf("resourcedb: no memory type for usage %v / properties %v", usage, properties)
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := asche.CheckResult(ret, "AllocateMemory"); err != nil {
		vk.DestroyBuffer(device, buffer, nil)
		return nil, err
	}
	if err := asche.CheckResult(vk.BindBufferMemory(device, buffer, memory, 0), "BindBufferMemory"); err != nil {
		vk.FreeMemory(device, memory, nil)
		vk.DestroyBuffer(device, buffer, nil)
		return nil, err
	}

	g := &gpuBuffer{device: device, buffer: buffer, memory: memory, alloc: vkmem.NewAllocator(size)}
	if properties&vk.MemoryPropertyHostVisibleBit != 0 {
		var mapped unsafe.Pointer
		ret := vk.MapMemory(device, memory, 0, vk.DeviceSize(size), 0, &mapped)
		if err := asche.CheckResult(ret, "MapMemory"); err != nil {
			g.destroy()
			return nil, err
		}
		g.mapped = mapped
	}
	return g, nil
}

func (g *gpuBuffer) writeAt(offset uint64, data []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Add(g.mapped, offset)), len(data))
	copy(dst, data)
}

func (g *gpuBuffer) destroy() {
	if g.mapped != nil {
		vk.UnmapMemory(g.device, g.memory)
	}
	vk.DestroyBuffer(g.device, g.buffer, nil)
	vk.FreeMemory(g.device, g.memory, nil)
}

// DB owns the four GPU sub-allocators, the pipeline cache, and the
// descriptor pool. Exactly one DB exists per renderer.
type DB struct {
	device *dieselvk.CoreDevice
	log    *diag.Logger

	vertex  *gpuBuffer
	index   *gpuBuffer
	staging *gpuBuffer
	uniform *gpuBuffer

	pipelines *dieselvk.CorePipeline
	programs  *dieselvk.ShaderPrograms
	descPool  *dieselvk.DescriptorPool

	transferCmds *asche.CommandBufferManager

	uniformAlign uint64
}

// New builds the four sub-allocators (vertex: DeviceLocal + TransferDst|
// VertexBuffer; index: DeviceLocal + TransferDst|IndexBuffer; staging:
// HostVisible|HostCoherent + TransferSrc; uniform: HostVisible|HostCoherent
// + UniformBuffer), one pipeline cache, and one descriptor pool sized by
// sizes.MaxDescriptorSets.
func New(device *dieselvk.CoreDevice, sizes config.ResourceDatabaseSizes, log *diag.Logger) (*DB, error) {
	memProps := device.MemoryProperties()
	handle := device.Handle()

	vertex, err := newGPUBuffer(handle, memProps, sizes.VertexBufferSpace,
		vk.BufferUsageTransferDstBit|vk.BufferUsageVertexBufferBit, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, fmt.Errorf("resourcedb: vertex allocator: %w", err)
	}
	index, err := newGPUBuffer(handle, memProps, sizes.IndexBufferSpace,
		vk.BufferUsageTransferDstBit|vk.BufferUsageIndexBufferBit, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vertex.destroy()
		return nil, fmt.Errorf("resourcedb: index allocator: %w", err)
	}
	staging, err := newGPUBuffer(handle, memProps, sizes.StagingBufferSpace,
		vk.BufferUsageTransferSrcBit, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vertex.destroy()
		index.destroy()
		return nil, fmt.Errorf("resourcedb: staging allocator: %w", err)
	}
	uniform, err := newGPUBuffer(handle, memProps, sizes.UniformBufferSpace,
		vk.BufferUsageUniformBufferBit, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vertex.destroy()
		index.destroy()
		staging.destroy()
		return nil, fmt.Errorf("resourcedb: uniform allocator: %w", err)
	}

	descPool, err := dieselvk.NewDescriptorPool(handle, sizes.MaxDescriptorSets)
	if err != nil {
		vertex.destroy()
		index.destroy()
		staging.destroy()
		uniform.destroy()
		return nil, fmt.Errorf("resourcedb: descriptor pool: %w", err)
	}

	_, graphicsFamily := device.GraphicsQueue()
	transferCmds, err := asche.NewCommandBufferManager(handle, vk.CommandBufferLevelPrimary, graphicsFamily)
	if err != nil {
		vertex.destroy()
		index.destroy()
		staging.destroy()
		uniform.destroy()
		descPool.Destroy()
		return nil, fmt.Errorf("resourcedb: transfer command buffer manager: %w", err)
	}

	pipelines, err := dieselvk.NewCorePipeline(handle)
	if err != nil {
		transferCmds.Destroy()
		vertex.destroy()
		index.destroy()
		staging.destroy()
		uniform.destroy()
		descPool.Destroy()
		return nil, fmt.Errorf("resourcedb: pipeline cache: %w", err)
	}

	props := device.Properties()
	props.Limits.Deref()

	return &DB{
		device:       device,
		log:          log,
		vertex:       vertex,
		index:        index,
		staging:      staging,
		uniform:      uniform,
		pipelines:    pipelines,
		programs:     dieselvk.NewShaderPrograms(handle),
		descPool:     descPool,
		transferCmds: transferCmds,
		uniformAlign: uint64(props.Limits.MinUniformBufferOffsetAlignment),
	}, nil
}

// alignPadding returns the byte count needed to round size up to the next
// multiple of align, per the original source's
// vulkan_memory.cpp uniform-buffer padding.
func alignPadding(size, align uint64) uint64 {
	if align == 0 {
		return 0
	}
	return (align - (size % align)) % align
}

func vertexBytes(vertices []resource.Vertex) []byte {
	out := make([]byte, len(vertices)*resource.VertexByteSize)
	for i, v := range vertices {
		o := out[i*resource.VertexByteSize:]
		writeF32s(o[0:], v.Pos[:])
		writeF32s(o[12:], v.Normal[:])
		writeF32s(o[24:], v.Color[:])
		writeF32s(o[40:], v.UV[:])
	}
	return out
}

func indexBytes(indices []uint16) []byte {
	out := make([]byte, len(indices)*2)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func writeF32s(dst []byte, vals []float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// CreateVertexBuffer allocates a target range in the vertex allocator and
// populates it via a staged transfer.
func (db *DB) CreateVertexBuffer(vertices []resource.Vertex) (vkmem.Allocation, error) {
	return db.createViaStaging(db.vertex, vertexBytes(vertices))
}

// CreateIndexBuffer is CreateVertexBuffer's analogue for index data.
func (db *DB) CreateIndexBuffer(indices []uint16) (vkmem.Allocation, error) {
	return db.createViaStaging(db.index, indexBytes(indices))
}

func (db *DB) createViaStaging(dst *gpuBuffer, data []byte) (vkmem.Allocation, error) {
	if len(data) == 0 {
		return vkmem.Allocation{}, fmt.Errorf("resourcedb: empty payload")
	}
	target, ok := dst.alloc.Allocate(uint64(len(data)))
	if !ok {
		return vkmem.Allocation{}, fmt.Errorf("resourcedb: out of space (need %d bytes)", len(data))
	}
	if err := db.transfer(dst, target, data); err != nil {
		dst.alloc.Free(target)
		return vkmem.Allocation{}, err
	}
	return target, nil
}

// transfer stages data through the staging allocator and records/submits a
// transient command buffer that copies it into dst at target's offset,
// waiting for the graphics queue to idle before the staging allocation is
// released -- waiting for the graphics queue to idle is the
// synchronization this engine uses instead of a fence per transfer.
func (db *DB) transfer(dst *gpuBuffer, target vkmem.Allocation, data []byte) error {
	stagingAlloc, ok := db.staging.alloc.Allocate(uint64(len(data)))
	if !ok {
		return fmt.Errorf("resourcedb: staging allocator out of space (need %d bytes)", len(data))
	}
	defer db.staging.alloc.Free(stagingAlloc)

	db.staging.writeAt(stagingAlloc.Offset, data)

	cmd, err := db.transferCmds.NewCommandBuffer()
	if err != nil {
		return err
	}

	if err := asche.CheckResult(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}), "BeginCommandBuffer"); err != nil {
		return err
	}

	vk.CmdCopyBuffer(cmd, db.staging.buffer, dst.buffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(stagingAlloc.Offset),
		DstOffset: vk.DeviceSize(target.Offset),
		Size:      vk.DeviceSize(len(data)),
	}})

	if err := asche.CheckResult(vk.EndCommandBuffer(cmd), "EndCommandBuffer"); err != nil {
		return err
	}

	queue, _ := db.device.GraphicsQueue()
	ret := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}}, vk.NullFence)
	if err := asche.CheckResult(ret, "QueueSubmit"); err != nil {
		return err
	}
	if err := asche.CheckResult(vk.QueueWaitIdle(queue), "QueueWaitIdle"); err != nil {
		return err
	}
	db.transferCmds.Reset()
	return nil
}

// CreateUniformBuffer allocates (padded to the device's minimum uniform
// buffer offset alignment) and writes data directly -- uniform buffers are
// host-visible, so unlike vertex/index data they skip staging entirely.
func (db *DB) CreateUniformBuffer(data []byte) (vkmem.Allocation, error) {
	padding := alignPadding(uint64(len(data)), db.uniformAlign)
	alloc, ok := db.uniform.alloc.AllocatePadded(uint64(len(data)), padding)
	if !ok {
		return vkmem.Allocation{}, fmt.Errorf("resourcedb: uniform allocator out of space (need %d bytes)", len(data))
	}
	db.uniform.writeAt(alloc.Offset, data)
	return alloc, nil
}

// WriteUniformBuffer re-uploads data into an existing uniform allocation --
// the transfer a material-collector uniforms-only version bump triggers.
func (db *DB) WriteUniformBuffer(alloc vkmem.Allocation, data []byte) error {
	if uint64(len(data)) > alloc.Size {
		return fmt.Errorf("resourcedb: uniform write of %d bytes exceeds allocation of %d", len(data), alloc.Size)
	}
	db.uniform.writeAt(alloc.Offset, data)
	return nil
}

// FreeVertexBuffer, FreeIndexBuffer, and FreeUniformBuffer return an
// allocation to its allocator's free list.
func (db *DB) FreeVertexBuffer(alloc vkmem.Allocation)  { db.vertex.alloc.Free(alloc) }
func (db *DB) FreeIndexBuffer(alloc vkmem.Allocation)   { db.index.alloc.Free(alloc) }
func (db *DB) FreeUniformBuffer(alloc vkmem.Allocation) { db.uniform.alloc.Free(alloc) }

// VertexBufferHandle, IndexBufferHandle, and UniformBufferHandle expose the
// single underlying vk.Buffer each allocator carves allocations from, for
// binding (vkCmdBindVertexBuffers/vkCmdBindIndexBuffer/descriptor writes).
func (db *DB) VertexBufferHandle() vk.Buffer  { return db.vertex.buffer }
func (db *DB) IndexBufferHandle() vk.Buffer   { return db.index.buffer }
func (db *DB) UniformBufferHandle() vk.Buffer { return db.uniform.buffer }

// CreatePipeline (re)builds the named material's shader program and
// pipeline entry against renderPass. Any
// previously built entry/program under name is freed first.
func (db *DB) CreatePipeline(name string, vertexShader, fragmentShader *resource.Shader, renderPass vk.RenderPass) (*dieselvk.PipelineEntry, error) {
	program, err := db.programs.Rebuild(name, vertexShader.SPIRV, fragmentShader.SPIRV)
	if err != nil {
		return nil, fmt.Errorf("resourcedb: shader program %q: %w", name, err)
	}
	builder := dieselvk.NewPipelineBuilder(db.device.Handle(), program)
	entry, err := builder.BuildPipeline(db.pipelines, db.descPool, name, renderPass)
	if err != nil {
		return nil, fmt.Errorf("resourcedb: pipeline %q: %w", name, err)
	}
	return entry, nil
}

// FreePipeline tears down name's pipeline entry (pipeline, layout,
// descriptor-set-layout) and returns its descriptor set to the pool.
func (db *DB) FreePipeline(name string) {
	db.pipelines.FreePipeline(db.descPool, name)
}

// BindUniformBuffer writes entry's binding-0 descriptor to reference alloc
// within the uniform buffer.
func (db *DB) BindUniformBuffer(entry *dieselvk.PipelineEntry, alloc vkmem.Allocation) {
	dieselvk.BindUniformBuffer(db.device.Handle(), entry, db.uniform.buffer, alloc.Offset, alloc.Size)
}

// Destroy releases the pipeline cache, shader programs, descriptor pool,
// and all four sub-allocator buffers. The caller must have already waited
// for the device to idle.
func (db *DB) Destroy() {
	db.transferCmds.Destroy()
	db.pipelines.Destroy(db.descPool)
	db.programs.Destroy()
	db.descPool.Destroy()
	db.vertex.destroy()
	db.index.destroy()
	db.staging.destroy()
	db.uniform.destroy()
}
