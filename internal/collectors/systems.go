package collectors

import (
	"github.com/andewx/dieselvk/internal/diag"
	vk "github.com/vulkan-go/vulkan"
)

// Systems bundles every collector together so a caller can build and drive
// them as one unit, in the fixed order the engine requires: collectors run to
// completion before the renderer records a frame.
type Systems struct {
	Stores *Stores

	mesh        *MeshCollector
	meshRef     *MeshReferenceCollector
	material    *MaterialCollector
	materialRef *MaterialReferenceCollector
	model       *ModelCollector
}

// NewSystems builds the full collector set against stores and db.
// renderPass is consulted lazily by the material collector so it keeps
// working across a window resize that replaces the render pass handle.
func NewSystems(stores *Stores, db GPUResources, renderPass func() vk.RenderPass, log *diag.Logger) *Systems {
	return &Systems{
		Stores:      stores,
		mesh:        NewMeshCollector(stores, db, log),
		meshRef:     NewMeshReferenceCollector(stores),
		material:    NewMaterialCollector(stores, db, renderPass, log),
		materialRef: NewMaterialReferenceCollector(stores),
		model:       NewModelCollector(stores),
	}
}

// Update runs every collector with per-tick work, in the order the mesh and
// material shadow components must be current before the reference
// collectors resync, and both before the renderer ever sees this tick's
// components.
func (s *Systems) Update() {
	s.mesh.Update()
	s.material.Update()
	s.meshRef.Update()
	s.materialRef.Update()
}
