package collectors

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
	"github.com/andewx/dieselvk/internal/resource"
	vk "github.com/vulkan-go/vulkan"
)

// MaterialCollector mirrors MaterialComponent into MaterialResources per
// a structural Version advance frees the prior pipeline and uniform
// buffer and rebuilds both from scratch; a UniformsVersion-only advance
// transfers the new payload into the existing allocation without touching
// the pipeline.
type MaterialCollector struct {
	stores     *Stores
	db         GPUResources
	renderPass func() vk.RenderPass
	log        *diag.Logger
}

// NewMaterialCollector wires the collector's lifecycle subscriptions.
// renderPass is called lazily each time a pipeline must be (re)built, so the
// collector survives a window resize that replaces the render pass handle.
func NewMaterialCollector(stores *Stores, db GPUResources, renderPass func() vk.RenderPass, log *diag.Logger) *MaterialCollector {
	c := &MaterialCollector{stores: stores, db: db, renderPass: renderPass, log: log}

	stores.Material.OnAdded(func(a ecs.Added[MaterialComponent]) {
		stores.MaterialResources.AddTo(a.Entity, MaterialResources{})
	})
	stores.Material.OnRemoved(func(r ecs.Removed[MaterialComponent]) {
		c.freeGPU(r.Entity)
		stores.MaterialResources.RemoveFrom(r.Entity)
	})

	return c
}

func pipelineName(entity ecs.Entity) string { return fmt.Sprintf("material-%d", entity) }

func (c *MaterialCollector) freeGPU(entity ecs.Entity) {
	gpu, ok := c.stores.MaterialResources.OwnedBy(entity)
	if !ok {
		return
	}
	if gpu.Entry != nil {
		c.db.FreePipeline(pipelineName(entity))
		gpu.Entry = nil
	}
	if gpu.Uploaded {
		c.db.FreeUniformBuffer(gpu.UniformAlloc)
		gpu.Uploaded = false
	}
}

// Update implements S5's two-speed refresh: structural changes rebuild the
// pipeline and uniform buffer; uniform-only changes just retransfer.
func (c *MaterialCollector) Update() {
	ecs.Join2(c.stores.Material, c.stores.MaterialResources, func(e ecs.Entity, src *MaterialComponent, dst *MaterialResources) {
		if src.Material == nil {
			return
		}
		mat := src.Material.Get()
		if mat == nil {
			return
		}

		if dst.Entry == nil || mat.Version != dst.Version {
			if dst.Entry != nil {
				c.db.FreePipeline(pipelineName(e))
				dst.Entry = nil
			}
			if dst.Uploaded {
				c.db.FreeUniformBuffer(dst.UniformAlloc)
				dst.Uploaded = false
			}

			entry, err := c.db.CreatePipeline(pipelineName(e), mat.VertexShader, mat.FragmentShader, c.renderPass())
			if err != nil {
				c.log.Vulkan("material collector: pipeline for entity %d: %v", e, err)
				return
			}
			dst.Entry = entry
			dst.Version = mat.Version

			alloc, err := c.db.CreateUniformBuffer(uniformBytes(mat.Uniforms))
			if err != nil {
				c.log.Vulkan("material collector: uniform buffer for entity %d: %v", e, err)
				return
			}
			c.db.BindUniformBuffer(dst.Entry, alloc)
			dst.UniformAlloc = alloc
			dst.UniformsVersion = mat.UniformsVersion
			dst.Uploaded = true
			return
		}

		if dst.Uploaded && mat.UniformsVersion != dst.UniformsVersion {
			if err := c.db.WriteUniformBuffer(dst.UniformAlloc, uniformBytes(mat.Uniforms)); err != nil {
				c.log.Vulkan("material collector: uniform transfer for entity %d: %v", e, err)
				return
			}
			dst.UniformsVersion = mat.UniformsVersion
		}
	})
}

// uniformBytes serializes Uniforms in world/view/projection order, each
// matrix's 16 floats in the order Uniforms stores them (column-major). This
// is the same layout resource.Material writes to its file; neither
// transposes to row-major.
func uniformBytes(u resource.Uniforms) []byte {
	out := make([]byte, 4*(16+16+16))
	off := 0
	for _, mat := range [][16]float32{u.World, u.View, u.Projection} {
		for _, v := range mat {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
			off += 4
		}
	}
	return out
}
