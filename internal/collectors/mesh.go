package collectors

import (
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
)

// MeshCollector mirrors MeshComponent into MeshResources: it adds
// the shadow component on MeshComponent::added and removes it (freeing the
// GPU allocations) on MeshComponent::removed, then on each Update re-uploads
// any mesh whose vertex or index sub-version has advanced since the last
// upload.
type MeshCollector struct {
	stores *Stores
	db     GPUResources
	log    *diag.Logger
}

// NewMeshCollector wires the collector's lifecycle subscriptions and
// returns it ready for repeated Update calls.
func NewMeshCollector(stores *Stores, db GPUResources, log *diag.Logger) *MeshCollector {
	c := &MeshCollector{stores: stores, db: db, log: log}

	stores.Mesh.OnAdded(func(a ecs.Added[MeshComponent]) {
		stores.MeshResources.AddTo(a.Entity, MeshResources{})
	})
	stores.Mesh.OnRemoved(func(r ecs.Removed[MeshComponent]) {
		c.freeGPU(r.Entity)
		stores.MeshResources.RemoveFrom(r.Entity)
	})

	return c
}

func (c *MeshCollector) freeGPU(entity ecs.Entity) {
	gpu, ok := c.stores.MeshResources.OwnedBy(entity)
	if !ok || !gpu.Uploaded {
		return
	}
	c.db.FreeVertexBuffer(gpu.VertexAlloc)
	c.db.FreeIndexBuffer(gpu.IndexAlloc)
	gpu.Uploaded = false
}

// Update re-uploads every mesh whose vertices or indices sub-version has
// advanced past the shadow component's saved version.
func (c *MeshCollector) Update() {
	ecs.Join2(c.stores.Mesh, c.stores.MeshResources, func(e ecs.Entity, src *MeshComponent, dst *MeshResources) {
		if src.Mesh == nil {
			return
		}
		mesh := src.Mesh.Get()
		if mesh == nil {
			return
		}
		if dst.Uploaded && mesh.VerticesVersion == dst.VerticesVersion && mesh.IndicesVersion == dst.IndicesVersion {
			return
		}

		if dst.Uploaded {
			c.db.FreeVertexBuffer(dst.VertexAlloc)
			c.db.FreeIndexBuffer(dst.IndexAlloc)
			dst.Uploaded = false
		}

		vertexAlloc, err := c.db.CreateVertexBuffer(mesh.Vertices)
		if err != nil {
			c.log.Vulkan("mesh collector: vertex upload for entity %d: %v", e, err)
			return
		}
		indexAlloc, err := c.db.CreateIndexBuffer(mesh.Indices)
		if err != nil {
			c.log.Vulkan("mesh collector: index upload for entity %d: %v", e, err)
			c.db.FreeVertexBuffer(vertexAlloc)
			return
		}

		dst.VertexAlloc = vertexAlloc
		dst.IndexAlloc = indexAlloc
		dst.IndexCount = uint32(len(mesh.Indices))
		dst.VerticesVersion = mesh.VerticesVersion
		dst.IndicesVersion = mesh.IndicesVersion
		dst.Uploaded = true
	})
}
