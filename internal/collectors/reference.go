package collectors

import "github.com/andewx/dieselvk/internal/ecs"

// MeshReferenceCollector mirrors MeshRef onto MeshResourcesRef:
// when a MeshRef is added to an owner, a MeshResourcesRef pointing at the
// same referenced owner is added alongside it; on Update, if the two refs'
// targets have diverged (the source ref was repointed in place), the
// destination ref is dropped and recreated against the new target.
type MeshReferenceCollector struct {
	stores *Stores
}

// NewMeshReferenceCollector wires the collector's lifecycle subscriptions.
func NewMeshReferenceCollector(stores *Stores) *MeshReferenceCollector {
	c := &MeshReferenceCollector{stores: stores}

	stores.MeshRef.OnAdded(func(a ecs.Added[MeshRef]) {
		target := a.Value.Ref.TargetEntity()
		stores.MeshResourcesRef.AddTo(a.Entity, MeshResourcesRef{
			Ref: ecs.NewRef(stores.MeshResources, target),
		})
	})
	stores.MeshRef.OnRemoved(func(r ecs.Removed[MeshRef]) {
		if dst, ok := stores.MeshResourcesRef.OwnedBy(r.Entity); ok && dst.Ref != nil {
			dst.Ref.Drop()
		}
		stores.MeshResourcesRef.RemoveFrom(r.Entity)
	})

	return c
}

// Update resyncs any MeshResourcesRef whose target has fallen out of step
// with its MeshRef.
func (c *MeshReferenceCollector) Update() {
	ecs.Join2(c.stores.MeshRef, c.stores.MeshResourcesRef, func(_ ecs.Entity, src *MeshRef, dst *MeshResourcesRef) {
		if src.Ref == nil || (dst.Ref != nil && dst.Ref.TargetEntity() == src.Ref.TargetEntity()) {
			return
		}
		if dst.Ref != nil {
			dst.Ref.Drop()
		}
		dst.Ref = ecs.NewRef(c.stores.MeshResources, src.Ref.TargetEntity())
	})
}

// MaterialReferenceCollector is MeshReferenceCollector's analogue for
// MaterialRef/MaterialResourcesRef.
type MaterialReferenceCollector struct {
	stores *Stores
}

// NewMaterialReferenceCollector wires the collector's lifecycle
// subscriptions.
func NewMaterialReferenceCollector(stores *Stores) *MaterialReferenceCollector {
	c := &MaterialReferenceCollector{stores: stores}

	stores.MaterialRef.OnAdded(func(a ecs.Added[MaterialRef]) {
		target := a.Value.Ref.TargetEntity()
		stores.MaterialResourcesRef.AddTo(a.Entity, MaterialResourcesRef{
			Ref: ecs.NewRef(stores.MaterialResources, target),
		})
	})
	stores.MaterialRef.OnRemoved(func(r ecs.Removed[MaterialRef]) {
		if dst, ok := stores.MaterialResourcesRef.OwnedBy(r.Entity); ok && dst.Ref != nil {
			dst.Ref.Drop()
		}
		stores.MaterialResourcesRef.RemoveFrom(r.Entity)
	})

	return c
}

// Update resyncs any MaterialResourcesRef whose target has fallen out of
// step with its MaterialRef.
func (c *MaterialReferenceCollector) Update() {
	ecs.Join2(c.stores.MaterialRef, c.stores.MaterialResourcesRef, func(_ ecs.Entity, src *MaterialRef, dst *MaterialResourcesRef) {
		if src.Ref == nil || (dst.Ref != nil && dst.Ref.TargetEntity() == src.Ref.TargetEntity()) {
			return
		}
		if dst.Ref != nil {
			dst.Ref.Drop()
		}
		dst.Ref = ecs.NewRef(c.stores.MaterialResources, src.Ref.TargetEntity())
	})
}
