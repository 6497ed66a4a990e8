// Package renderer implements the frame loop / renderer: a system
// reading Model plus references to the mesh and material GPU-resource
// components, recording bind-pipeline -> bind-vertex-buffer ->
// bind-index-buffer -> bind-descriptor-set -> draw-indexed for every
// drawable entity inside one Window frame.
package renderer

import (
	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/collectors"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
	"github.com/andewx/dieselvk/internal/resourcedb"
	vk "github.com/vulkan-go/vulkan"
)

// Surface is the slice of dieselvk.Window the frame loop drives: acquire
// and begin a frame, submit and present it, rebuild after a stale
// swapchain. Taking the interface rather than the concrete window lets the
// out-of-date handling be exercised without a device.
type Surface interface {
	BeginFrame() (dieselvk.Frame, bool, error)
	EndFrame() (bool, error)
	Resize() error
}

// Renderer owns no Vulkan objects of its own: it drives window's frame loop
// and reads whatever db/stores the collectors most recently populated.
type Renderer struct {
	window Surface
	db     *resourcedb.DB
	stores *collectors.Stores
	log    *diag.Logger
}

// New builds a Renderer bound to window, db, and stores. All three must
// outlive the Renderer.
func New(window Surface, db *resourcedb.DB, stores *collectors.Stores, log *diag.Logger) *Renderer {
	return &Renderer{window: window, db: db, stores: stores, log: log}
}

// DrawFrame runs one before_update/update/after_update cycle. An
// out-of-date swapchain (ok=false, err=nil from BeginFrame) skips draw
// recording entirely and triggers a resize instead of propagating an
// error -- the next call to DrawFrame submits normally.
func (r *Renderer) DrawFrame() error {
	frame, ok, err := r.window.BeginFrame()
	if err != nil {
		return err
	}
	if !ok {
		return r.window.Resize()
	}

	ecs.Join3(r.stores.Model, r.stores.MeshResourcesRef, r.stores.MaterialResourcesRef,
		func(_ ecs.Entity, _ *collectors.Model, meshRef *collectors.MeshResourcesRef, matRef *collectors.MaterialResourcesRef) {
			r.draw(frame, meshRef, matRef)
		})

	ok, err = r.window.EndFrame()
	if err != nil {
		return err
	}
	if !ok {
		return r.window.Resize()
	}
	return nil
}

func (r *Renderer) draw(frame dieselvk.Frame, meshRef *collectors.MeshResourcesRef, matRef *collectors.MaterialResourcesRef) {
	if meshRef.Ref == nil || matRef.Ref == nil {
		return
	}
	mesh, ok := meshRef.Ref.Get(r.stores.MeshResources)
	if !ok || !mesh.Uploaded {
		return
	}
	mat, ok := matRef.Ref.Get(r.stores.MaterialResources)
	if !ok || mat.Entry == nil {
		return
	}

	cmd := frame.Command
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, mat.Entry.Pipeline)
	vk.CmdBindVertexBuffers(cmd, 0, 1,
		[]vk.Buffer{r.db.VertexBufferHandle()},
		[]vk.DeviceSize{vk.DeviceSize(mesh.VertexAlloc.Offset)})
	vk.CmdBindIndexBuffer(cmd, r.db.IndexBufferHandle(), vk.DeviceSize(mesh.IndexAlloc.Offset), vk.IndexTypeUint16)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, mat.Entry.Layout, 0, 1,
		[]vk.DescriptorSet{mat.Entry.DescriptorSet}, 0, nil)
	vk.CmdDrawIndexed(cmd, mesh.IndexCount, 1, 0, 0, 0)
}
