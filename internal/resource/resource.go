// Package resource implements the path-keyed reference-counted resource
// cache (load, share, evict on last release) plus the three concrete
// resource kinds it hosts: Mesh, Material, Shader.
package resource

import (
	"sync/atomic"

	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/event"
)

// ID is a globally unique, process-lifetime resource identifier.
type ID uint32

var nextID uint64

// NewID allocates a fresh, globally unique ID.
func NewID() ID {
	return ID(atomic.AddUint64(&nextID, 1))
}

// Header is embedded in every concrete resource kind: an ID and, when the
// resource was loaded from (or will be saved to) disk, its path.
type Header struct {
	id   ID
	path string
}

// ID returns the resource's identity.
func (h *Header) ID() ID { return h.id }

// Path returns the resource's backing file path, or "" if it was built
// in-memory rather than loaded.
func (h *Header) Path() string { return h.path }

// SetPath assigns the backing path; the cache calls this once on a cache
// miss, before ForceReload.
func (h *Header) SetPath(path string) { h.path = path }

// Loader adapts a concrete resource type T (Mesh, Material, Shader) to the
// cache: New allocates a zero-value instance, ForceReload performs the
// top-level file read.
type Loader[T any] interface {
	New() *T
	ForceReload(v *T, path string, log *diag.Logger) error
}

type entry[T any] struct {
	value    *T
	refCount int
}

// Cache is a path-keyed, reference-counted registry of loaded resources.
// At most one live instance exists per path; Load on an already-cached path
// returns a new reference to the same instance rather than reloading.
type Cache[T any] struct {
	loader  Loader[T]
	log     *diag.Logger
	byPath  map[string]*entry[T]
	evicted event.Event[string]
}

// NewCache constructs an empty cache backed by loader.
func NewCache[T any](loader Loader[T], log *diag.Logger) *Cache[T] {
	return &Cache[T]{loader: loader, log: log, byPath: make(map[string]*entry[T])}
}

// Load returns a reference to the resource at path, loading it on first
// request. A failed load still returns a usable (default-valued) resource
// and reference; the failure is logged through the IO channel and callers
// may check Ref.Get() against whatever validity predicate the concrete type
// exposes.
func (c *Cache[T]) Load(path string) *Ref[T] {
	if e, ok := c.byPath[path]; ok {
		e.refCount++
		return &Ref[T]{cache: c, path: path}
	}

	v := c.loader.New()
	if h, ok := any(v).(interface{ SetPath(string) }); ok {
		h.SetPath(path)
	}
	if err := c.loader.ForceReload(v, path, c.log); err != nil && c.log != nil {
		c.log.IO("resource: load %q: %v", path, err)
	}
	c.byPath[path] = &entry[T]{value: v, refCount: 1}
	return &Ref[T]{cache: c, path: path}
}

// OnEvicted subscribes to the resource_no_longer_referenced signal, fired
// with the path of any entry whose reference count just reached zero.
func (c *Cache[T]) OnEvicted(fn func(path string)) *event.Handler[string] {
	return c.evicted.Subscribe(fn)
}

// Len reports the number of distinct cached paths, mostly for tests.
func (c *Cache[T]) Len() int { return len(c.byPath) }

// Ref is a shared, non-owning handle to a cached resource. The cache
// exclusively owns the resource while any Ref to it is outstanding; callers
// must call Release exactly once per Ref obtained from Load.
type Ref[T any] struct {
	cache    *Cache[T]
	path     string
	released bool
}

// Get returns the referenced resource, or nil if it has already been
// evicted (every Ref to its path has been released).
func (r *Ref[T]) Get() *T {
	if e, ok := r.cache.byPath[r.path]; ok {
		return e.value
	}
	return nil
}

// Path returns the path this reference was loaded from.
func (r *Ref[T]) Path() string { return r.path }

// Release decrements the reference count; at zero, the cache publishes
// OnEvicted and drops the entry. Safe to call more than once.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	e, ok := r.cache.byPath[r.path]
	if !ok {
		return
	}
	e.refCount--
	if e.refCount <= 0 {
		delete(r.cache.byPath, r.path)
		r.cache.evicted.Publish(r.path)
	}
}
