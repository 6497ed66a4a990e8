package collectors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
	"github.com/andewx/dieselvk/internal/resource"
	"github.com/andewx/dieselvk/internal/vkmem"
)

var errOutOfSpace = errors.New("fakeGPU: allocator exhausted")

// fakeGPU is a GPUResources that never touches a real device, so the
// collectors' version-tracking logic can be driven by a plain unit test.
// Every allocator-facing call is a cheap bookkeeping op against an in-memory
// vkmem.Allocator instead of a real gpuBuffer.
type fakeGPU struct {
	alloc *vkmem.Allocator

	pipelinesBuilt  int
	pipelinesFreed  int
	uniformsCreated int
	uniformsWritten int
	uniformsFreed   int
	vertexUploads   int
	indexUploads    int
	vertexFrees     int
	indexFrees      int

	bound map[*dieselvk.PipelineEntry]vkmem.Allocation
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{alloc: vkmem.NewAllocator(1 << 20), bound: make(map[*dieselvk.PipelineEntry]vkmem.Allocation)}
}

func (f *fakeGPU) CreateVertexBuffer(vertices []resource.Vertex) (vkmem.Allocation, error) {
	f.vertexUploads++
	a, ok := f.alloc.Allocate(uint64(len(vertices) * resource.VertexByteSize))
	if !ok {
		return vkmem.Allocation{}, errOutOfSpace
	}
	return a, nil
}

func (f *fakeGPU) CreateIndexBuffer(indices []uint16) (vkmem.Allocation, error) {
	f.indexUploads++
	a, ok := f.alloc.Allocate(uint64(len(indices) * 2))
	if !ok {
		return vkmem.Allocation{}, errOutOfSpace
	}
	return a, nil
}

func (f *fakeGPU) FreeVertexBuffer(a vkmem.Allocation) { f.vertexFrees++; f.alloc.Free(a) }
func (f *fakeGPU) FreeIndexBuffer(a vkmem.Allocation)  { f.indexFrees++; f.alloc.Free(a) }

func (f *fakeGPU) CreatePipeline(name string, vertexShader, fragmentShader *resource.Shader, renderPass vk.RenderPass) (*dieselvk.PipelineEntry, error) {
	f.pipelinesBuilt++
	return &dieselvk.PipelineEntry{Name: name}, nil
}

func (f *fakeGPU) FreePipeline(name string) { f.pipelinesFreed++ }

func (f *fakeGPU) CreateUniformBuffer(data []byte) (vkmem.Allocation, error) {
	f.uniformsCreated++
	a, ok := f.alloc.Allocate(uint64(len(data)))
	if !ok {
		return vkmem.Allocation{}, errOutOfSpace
	}
	return a, nil
}

func (f *fakeGPU) WriteUniformBuffer(a vkmem.Allocation, data []byte) error {
	f.uniformsWritten++
	return nil
}

func (f *fakeGPU) FreeUniformBuffer(a vkmem.Allocation) { f.uniformsFreed++; f.alloc.Free(a) }

func (f *fakeGPU) BindUniformBuffer(entry *dieselvk.PipelineEntry, alloc vkmem.Allocation) {
	f.bound[entry] = alloc
}

func newTestMaterialRef(t *testing.T, log *diag.Logger) *resource.Ref[resource.Material] {
	t.Helper()
	cache := resource.NewCache(resource.NewMaterialLoader(), log)
	return cache.Load("no-such-material.mat")
}

// TestMaterialCollectorTwoSpeedRefresh is S5: a structural Version advance
// rebuilds the pipeline and uniform buffer; a UniformsVersion-only advance
// re-transfers without touching the pipeline.
func TestMaterialCollectorTwoSpeedRefresh(t *testing.T) {
	log := diag.NewDiscard()
	world := ecs.NewWorld(log)
	stores := NewStores(world, log)
	gpu := newFakeGPU()
	renderPass := func() vk.RenderPass { return vk.NullRenderPass }
	collector := NewMaterialCollector(stores, gpu, renderPass, log)

	matRef := newTestMaterialRef(t, log)
	mat := matRef.Get()
	require.NotNil(t, mat)
	mat.SetShaders(&resource.Shader{}, &resource.Shader{})

	entity := world.NewEntity()
	stores.Material.AddTo(entity, MaterialComponent{Material: matRef})

	collector.Update()
	require.Equal(t, 1, gpu.pipelinesBuilt)
	require.Equal(t, 1, gpu.uniformsCreated)
	require.Equal(t, 0, gpu.pipelinesFreed)

	dst, ok := stores.MaterialResources.OwnedBy(entity)
	require.True(t, ok)
	require.NotNil(t, dst.Entry)
	require.True(t, dst.Uploaded)

	// Uniforms-only change: re-transfer, no pipeline churn.
	mat.SetUniforms(resource.Uniforms{})
	collector.Update()
	require.Equal(t, 1, gpu.pipelinesBuilt, "uniform-only change must not rebuild the pipeline")
	require.Equal(t, 0, gpu.pipelinesFreed)
	require.Equal(t, 1, gpu.uniformsCreated, "uniform-only change must not reallocate the uniform buffer")
	require.Equal(t, 1, gpu.uniformsWritten)

	// Structural change: full rebuild.
	mat.SetShaders(&resource.Shader{}, &resource.Shader{})
	collector.Update()
	require.Equal(t, 2, gpu.pipelinesBuilt)
	require.Equal(t, 1, gpu.pipelinesFreed)
	require.Equal(t, 2, gpu.uniformsCreated)
	require.Equal(t, 1, gpu.uniformsFreed)
}

// TestMaterialCollectorFreesOnRemoval checks the lifecycle side: removing
// the logical MaterialComponent frees whatever GPU state had been built.
func TestMaterialCollectorFreesOnRemoval(t *testing.T) {
	log := diag.NewDiscard()
	world := ecs.NewWorld(log)
	stores := NewStores(world, log)
	gpu := newFakeGPU()
	renderPass := func() vk.RenderPass { return vk.NullRenderPass }
	collector := NewMaterialCollector(stores, gpu, renderPass, log)

	matRef := newTestMaterialRef(t, log)
	mat := matRef.Get()
	mat.SetShaders(&resource.Shader{}, &resource.Shader{})

	entity := world.NewEntity()
	stores.Material.AddTo(entity, MaterialComponent{Material: matRef})
	collector.Update()
	require.Equal(t, 1, gpu.pipelinesBuilt)

	world.DestroyEntity(entity)
	require.Equal(t, 1, gpu.pipelinesFreed)
	require.Equal(t, 1, gpu.uniformsFreed)
}
