// Package collectors implements the systems that bridge logical resource
// components (mesh, material, model) to the GPU-resident shadow components
// the renderer draws from: a mesh collector and its reference
// collector, a material collector and its reference collector, and a model
// collector that simply mirrors presence.
package collectors

import (
	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
	"github.com/andewx/dieselvk/internal/resource"
	"github.com/andewx/dieselvk/internal/vkmem"
)

// MeshComponent is the logical mesh an entity owns: a shared reference into
// the mesh resource cache, so several entities can draw the same cached
// Mesh without duplicating vertex/index data host-side.
type MeshComponent struct {
	Mesh *resource.Ref[resource.Mesh]
}

// MeshResources is the GPU-resident shadow component the mesh collector
// maintains: one vertex and one index allocation in the resource database,
// plus the source sub-versions last uploaded from, backed by Mesh's
// per-subfield VersionIDs.
type MeshResources struct {
	VertexAlloc     vkmem.Allocation
	IndexAlloc      vkmem.Allocation
	IndexCount      uint32
	Uploaded        bool
	VerticesVersion resource.VersionID
	IndicesVersion  resource.VersionID
}

// MaterialComponent is the logical material an entity owns.
type MaterialComponent struct {
	Material *resource.Ref[resource.Material]
}

// MaterialResources is the GPU-resident shadow component the material
// collector maintains: the built pipeline entry, the bound uniform
// allocation, and the structural/uniform versions last observed.
type MaterialResources struct {
	Entry           *dieselvk.PipelineEntry
	UniformAlloc    vkmem.Allocation
	Uploaded        bool
	Version         resource.VersionID
	UniformsVersion resource.VersionID
}

// Model pairs a mesh-owning entity and a material-owning entity into one
// drawable unit; the two owners are frequently the entity itself but need
// not be.
type Model struct {
	MeshOwner     ecs.Entity
	MaterialOwner ecs.Entity
}

// ModelResources mirrors Model's presence with no per-frame work of its
// own -- the model collector only ensures it exists/is removed alongside
// Model -- no heavy per-frame work of its own.
type ModelResources struct{}

// MeshRef is the "Ref<ecs_mesh>" reference component: stored on a model
// entity, it points at the entity that owns the source MeshComponent.
type MeshRef struct{ Ref *ecs.Ref[MeshComponent] }

// MaterialRef is MeshRef's analogue for MaterialComponent.
type MaterialRef struct{ Ref *ecs.Ref[MaterialComponent] }

// MeshResourcesRef mirrors MeshRef onto the GPU-resource component, kept in
// sync by the mesh-reference collector.
type MeshResourcesRef struct{ Ref *ecs.Ref[MeshResources] }

// MaterialResourcesRef is MeshResourcesRef's analogue for materials.
type MaterialResourcesRef struct{ Ref *ecs.Ref[MaterialResources] }

// Stores bundles every component store collectors and the renderer operate
// over, all registered against one World.
type Stores struct {
	World *ecs.World

	Mesh              *ecs.ComponentStore[MeshComponent]
	MeshResources     *ecs.ComponentStore[MeshResources]
	Material          *ecs.ComponentStore[MaterialComponent]
	MaterialResources *ecs.ComponentStore[MaterialResources]
	Model             *ecs.ComponentStore[Model]
	ModelResources    *ecs.ComponentStore[ModelResources]

	MeshRef              *ecs.ComponentStore[MeshRef]
	MaterialRef          *ecs.ComponentStore[MaterialRef]
	MeshResourcesRef     *ecs.ComponentStore[MeshResourcesRef]
	MaterialResourcesRef *ecs.ComponentStore[MaterialResourcesRef]
}

// NewStores builds and registers every store named above against world.
func NewStores(world *ecs.World, log *diag.Logger) *Stores {
	return &Stores{
		World:                world,
		Mesh:                 ecs.NewComponentStore[MeshComponent](world, "mesh", log),
		MeshResources:        ecs.NewComponentStore[MeshResources](world, "mesh_resources", log),
		Material:             ecs.NewComponentStore[MaterialComponent](world, "material", log),
		MaterialResources:    ecs.NewComponentStore[MaterialResources](world, "material_resources", log),
		Model:                ecs.NewComponentStore[Model](world, "model", log),
		ModelResources:       ecs.NewComponentStore[ModelResources](world, "model_resources", log),
		MeshRef:              ecs.NewComponentStore[MeshRef](world, "mesh_ref", log),
		MaterialRef:          ecs.NewComponentStore[MaterialRef](world, "material_ref", log),
		MeshResourcesRef:     ecs.NewComponentStore[MeshResourcesRef](world, "mesh_resources_ref", log),
		MaterialResourcesRef: ecs.NewComponentStore[MaterialResourcesRef](world, "material_resources_ref", log),
	}
}
