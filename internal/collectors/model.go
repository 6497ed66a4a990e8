package collectors

import "github.com/andewx/dieselvk/internal/ecs"

// ModelCollector ensures ModelResources exists whenever, and only while, the
// owning entity also owns a Model. It carries no Update method: its entire
// job is the lifecycle mirroring wired in NewModelCollector.
type ModelCollector struct {
	stores *Stores
}

// NewModelCollector wires the presence-mirroring subscriptions.
func NewModelCollector(stores *Stores) *ModelCollector {
	c := &ModelCollector{stores: stores}

	stores.Model.OnAdded(func(a ecs.Added[Model]) {
		stores.ModelResources.AddUnique(a.Entity, ModelResources{})
	})
	stores.Model.OnRemoved(func(r ecs.Removed[Model]) {
		stores.ModelResources.RemoveFrom(r.Entity)
	})

	return c
}
