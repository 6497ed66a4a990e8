package ecs

import "github.com/andewx/dieselvk/internal/event"

// Ref is a stable index-based handle to a component of type T.
//
// The source defines this as a component of itself (Ref<T> implies
// Ref<Ref<T>>, recursively). That recursion is closed here: Ref lives
// alongside a ComponentStore, not inside one, subscribing directly to the
// store's reallocation events to keep its target index correct.
//
// Per the resolved open question on tail removals (grounded in the
// reference implementation's own `reallocating_removed` gating): a removal
// at the tail of the backing sequence never publishes a reallocation
// notice, so a Ref pointing at the tail slot is not flagged invalid at
// removal time — Get() still catches it via the bounds/owner check below,
// it just does so without emitting the "active reference to removed
// component" diagnostic.
type Ref[T any] struct {
	targetEntity Entity
	targetIndex  int
	valid        bool

	hAdded   *event.Handler[int]
	hRemoved *event.Handler[int]
}

// NewRef resolves a reference to target's component in store. The
// reference remains valid (and kept up to date) as long as target continues
// to own a T; call Drop when the reference is no longer needed.
func NewRef[T any](store *ComponentStore[T], target Entity) *Ref[T] {
	r := &Ref[T]{targetEntity: target}

	if idx, ok := store.IndexOwnedBy(target); ok {
		r.targetIndex = idx
		r.valid = true
	}

	r.hAdded = store.reallocAdded.Subscribe(func(insertedAt int) {
		if r.valid && insertedAt <= r.targetIndex {
			r.targetIndex++
		}
	})
	r.hRemoved = store.reallocRemoved.Subscribe(func(removedAt int) {
		if !r.valid {
			return
		}
		switch {
		case removedAt == r.targetIndex:
			if store.log != nil {
				store.log.Invariant("ecs: active reference to removed component %s (entity %d)", store.name, r.targetEntity)
			}
			r.valid = false
		case removedAt < r.targetIndex:
			r.targetIndex--
		}
	})
	return r
}

// Drop detaches the reference from its store's reallocation events.
func (r *Ref[T]) Drop() {
	if r.hAdded != nil {
		r.hAdded.Drop()
	}
	if r.hRemoved != nil {
		r.hRemoved.Drop()
	}
}

// Valid reports whether the reference currently believes it points at a
// live component. A tail removal leaves this true after the component is
// gone; Get() is the authoritative check.
func (r *Ref[T]) Valid() bool { return r.valid }

// TargetEntity returns the entity the reference was created against.
func (r *Ref[T]) TargetEntity() Entity { return r.targetEntity }

// TargetIndex returns the reference's current believed index into the
// backing store, for S1/S2-style invariant checks.
func (r *Ref[T]) TargetIndex() int { return r.targetIndex }

// Get resolves the reference against store, returning the component and
// true only if the slot still exists and is still owned by the original
// target entity.
func (r *Ref[T]) Get(store *ComponentStore[T]) (*T, bool) {
	if !r.valid || r.targetIndex < 0 || r.targetIndex >= len(store.records) {
		return nil, false
	}
	rec := &store.records[r.targetIndex]
	if rec.owner != r.targetEntity {
		return nil, false
	}
	return &rec.value, true
}
