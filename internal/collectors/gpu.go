package collectors

import (
	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/resource"
	"github.com/andewx/dieselvk/internal/vkmem"
	vk "github.com/vulkan-go/vulkan"
)

// GPUResources is the slice of *resourcedb.DB the mesh and material
// collectors actually call. Depending on the interface rather than the
// concrete type lets the collectors' version-tracking logic (S5's two-speed
// material refresh, the mesh re-upload check) run against a fake in tests
// that never touch a real device.
type GPUResources interface {
	CreateVertexBuffer(vertices []resource.Vertex) (vkmem.Allocation, error)
	CreateIndexBuffer(indices []uint16) (vkmem.Allocation, error)
	FreeVertexBuffer(alloc vkmem.Allocation)
	FreeIndexBuffer(alloc vkmem.Allocation)

	CreatePipeline(name string, vertexShader, fragmentShader *resource.Shader, renderPass vk.RenderPass) (*dieselvk.PipelineEntry, error)
	FreePipeline(name string)

	CreateUniformBuffer(data []byte) (vkmem.Allocation, error)
	WriteUniformBuffer(alloc vkmem.Allocation, data []byte) error
	FreeUniformBuffer(alloc vkmem.Allocation)
	BindUniformBuffer(entry *dieselvk.PipelineEntry, alloc vkmem.Allocation)
}
