package ecs

import (
	"sort"

	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/event"
)

// record is one owner-ID-sorted entry in a ComponentStore.
type record[T any] struct {
	owner Entity
	value T
}

// Added is published after a component is inserted and the owners set is
// updated; observers may read (but not resize) the store.
type Added[T any] struct {
	Entity Entity
	Value  *T
}

// Removed is published before a component record is erased, so observers
// can still read its final value.
type Removed[T any] struct {
	Entity Entity
	Value  T
}

// ComponentStore holds every live instance of component type T, as a single
// sequence sorted strictly ascending by owner entity plus an owners set for
// O(1) membership, per the data model's two-structure invariant.
type ComponentStore[T any] struct {
	world   *World
	name    string
	log     *diag.Logger
	records []record[T]
	owners  map[Entity]bool

	added          event.Event[Added[T]]
	removed        event.Event[Removed[T]]
	reallocAdded   event.Event[int]
	reallocRemoved event.Event[int]
}

// NewComponentStore builds and registers a store for component type T.
// name is used purely for diagnostics.
func NewComponentStore[T any](world *World, name string, log *diag.Logger) *ComponentStore[T] {
	s := &ComponentStore[T]{
		world:  world,
		name:   name,
		log:    log,
		owners: make(map[Entity]bool),
	}
	world.register(s)
	return s
}

func (s *ComponentStore[T]) isOwnedBy(e Entity) bool { return s.owners[e] }
func (s *ComponentStore[T]) removeFrom(e Entity)     { s.RemoveFrom(e) }
func (s *ComponentStore[T]) typeName() string        { return s.name }

// cursor methods back the multi-cursor intersection join in system.go.
func (s *ComponentStore[T]) len() int             { return len(s.records) }
func (s *ComponentStore[T]) ownerAt(i int) Entity { return s.records[i].owner }

func (s *ComponentStore[T]) lowerBound(owner Entity) int {
	return sort.Search(len(s.records), func(i int) bool { return s.records[i].owner >= owner })
}

// AddTo inserts a new T owned by entity, maintaining sort order. Returns nil
// and logs an Invariant diagnostic if entity already owns a T.
//
// Effect order follows the store contract: insert the record (publishing a
// reallocation notice first if the insertion shifted any later record),
// then mark ownership, then publish the general Added event.
func (s *ComponentStore[T]) AddTo(entity Entity, value T) *T {
	if s.owners[entity] {
		if s.log != nil {
			s.log.Invariant("ecs: %s: entity %d already owns this component", s.name, entity)
		}
		return nil
	}
	idx := s.lowerBound(entity)
	tail := idx == len(s.records)

	s.records = append(s.records, record[T]{})
	copy(s.records[idx+1:], s.records[idx:])
	s.records[idx] = record[T]{owner: entity, value: value}

	if !tail {
		s.reallocAdded.Publish(idx)
	}
	s.owners[entity] = true

	ptr := &s.records[idx].value
	s.added.Publish(Added[T]{Entity: entity, Value: ptr})
	return ptr
}

// AddUnique is AddTo without the duplicate diagnostic: if entity already
// owns a T the existing component is returned untouched, otherwise a new
// one is inserted. Collectors use this to ensure a paired component exists
// without caring which tick first created it.
func (s *ComponentStore[T]) AddUnique(entity Entity, value T) *T {
	if existing, ok := s.OwnedBy(entity); ok {
		return existing
	}
	return s.AddTo(entity, value)
}

// RemoveFrom erases entity's T, if any. A missing component during a
// cascading DestroyEntity is a silent no-op (the entity may never have
// owned this type); outside of that, it's logged as a double-remove.
//
// Effect order: publish Removed (so observers can still read the value),
// then erase the record (publishing a reallocation notice if the erasure
// shifted any later record — a tail erasure never does), then clear
// ownership.
func (s *ComponentStore[T]) RemoveFrom(entity Entity) bool {
	idx, ok := s.IndexOwnedBy(entity)
	if !ok {
		if s.world.IsBeingDestroyed(entity) {
			return false
		}
		if s.log != nil {
			s.log.Invariant("ecs: %s: double remove for entity %d", s.name, entity)
		}
		return false
	}

	s.removed.Publish(Removed[T]{Entity: entity, Value: s.records[idx].value})

	tail := idx == len(s.records)-1
	copy(s.records[idx:], s.records[idx+1:])
	s.records = s.records[:len(s.records)-1]

	if !tail {
		s.reallocRemoved.Publish(idx)
	}
	delete(s.owners, entity)
	return true
}

// OwnedBy returns a pointer to entity's T and true, or nil, false.
func (s *ComponentStore[T]) OwnedBy(entity Entity) (*T, bool) {
	idx, ok := s.IndexOwnedBy(entity)
	if !ok {
		return nil, false
	}
	return &s.records[idx].value, true
}

// IsOwnedBy reports O(1) membership.
func (s *ComponentStore[T]) IsOwnedBy(entity Entity) bool { return s.owners[entity] }

// IndexOwnedBy returns the sequence index for entity's T, if owned.
func (s *ComponentStore[T]) IndexOwnedBy(entity Entity) (int, bool) {
	if !s.owners[entity] {
		return 0, false
	}
	idx := s.lowerBound(entity)
	if idx < len(s.records) && s.records[idx].owner == entity {
		return idx, true
	}
	return 0, false
}

// Len reports the number of live components.
func (s *ComponentStore[T]) Len() int { return len(s.records) }

// Iter calls fn for every (entity, value) pair in owner-ID order.
func (s *ComponentStore[T]) Iter(fn func(Entity, *T)) {
	for i := range s.records {
		fn(s.records[i].owner, &s.records[i].value)
	}
}

// OnAdded subscribes to the general add notification.
func (s *ComponentStore[T]) OnAdded(fn func(Added[T])) *event.Handler[Added[T]] {
	return s.added.Subscribe(fn)
}

// OnRemoved subscribes to the general remove notification.
func (s *ComponentStore[T]) OnRemoved(fn func(Removed[T])) *event.Handler[Removed[T]] {
	return s.removed.Subscribe(fn)
}
