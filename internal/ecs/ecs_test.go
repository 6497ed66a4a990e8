package ecs

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownersOf[T any](s *ComponentStore[T]) []Entity {
	var out []Entity
	s.Iter(func(e Entity, _ *T) { out = append(out, e) })
	return out
}

// TestSortedInsertionAndReferenceStability covers scenario S1: add
// components for entities [10, 5, 20, 1] and confirm the store is sorted,
// then confirm a reference to entity 10 tracks the insertion of a new
// entity ahead of it.
func TestSortedInsertionAndReferenceStability(t *testing.T) {
	w := NewWorld(nil)
	s := NewComponentStore[string](w, "widget", nil)

	s.AddTo(10, "ten")
	s.AddTo(5, "five")
	s.AddTo(20, "twenty")
	s.AddTo(1, "one")

	assert.Equal(t, []Entity{1, 5, 10, 20}, ownersOf(s))

	ref := NewRef(s, 10)
	idx, _ := s.IndexOwnedBy(10)
	assert.Equal(t, idx, ref.TargetIndex())
	assert.Equal(t, 2, ref.TargetIndex())

	s.AddTo(3, "three") // inserts at index 1, ahead of entity 10's slot

	assert.Equal(t, 3, ref.TargetIndex())
	newIdx, ok := s.IndexOwnedBy(10)
	require.True(t, ok)
	assert.Equal(t, newIdx, ref.TargetIndex())

	val, ok := ref.Get(s)
	require.True(t, ok)
	assert.Equal(t, "ten", *val)
}

// TestRemovalInvalidationDiagnostic covers scenario S2: removing a
// non-tail component flags a Ref pointing at the removed slot invalid (the
// path that logs the "active reference" diagnostic when the store has a
// logger; this store has none, so the log itself is not checked) and
// decrements references past it.
func TestRemovalInvalidationDiagnostic(t *testing.T) {
	w := NewWorld(nil)
	s := NewComponentStore[string](w, "widget", nil)
	s.AddTo(10, "ten")
	s.AddTo(5, "five")
	s.AddTo(20, "twenty")
	s.AddTo(1, "one")
	s.AddTo(3, "three")
	// owners now: [1, 3, 5, 10, 20]

	refFive := NewRef(s, 5)
	refTen := NewRef(s, 10)
	assert.Equal(t, 2, refFive.TargetIndex())
	assert.Equal(t, 3, refTen.TargetIndex())

	s.RemoveFrom(5)

	assert.False(t, refFive.Valid())
	_, ok := refFive.Get(s)
	assert.False(t, ok)

	assert.True(t, refTen.Valid())
	assert.Equal(t, 2, refTen.TargetIndex())
	val, ok := refTen.Get(s)
	require.True(t, ok)
	assert.Equal(t, "ten", *val)
}

// TestTailRemovalDoesNotInvalidate resolves the open question: tail-position
// removals never publish a reallocation notice, so a Ref to the tail
// element is not flagged with the diagnostic -- it simply becomes
// unresolvable via Get (stale rather than actively invalidated).
func TestTailRemovalDoesNotInvalidate(t *testing.T) {
	w := NewWorld(nil)
	s := NewComponentStore[string](w, "widget", nil)
	s.AddTo(1, "one")
	s.AddTo(2, "two")

	tailRef := NewRef(s, 2)
	require.True(t, tailRef.Valid())

	s.RemoveFrom(2) // tail removal: no reallocating_removed publish

	assert.True(t, tailRef.Valid(), "tail removal must not flip valid=false")
	_, ok := tailRef.Get(s)
	assert.False(t, ok, "but Get must still refuse to resolve a gone slot")
}

func TestDuplicateAddIsRefusedNotPanicking(t *testing.T) {
	w := NewWorld(nil)
	s := NewComponentStore[int](w, "counter", nil)
	s.AddTo(1, 5)
	ptr := s.AddTo(1, 9)
	assert.Nil(t, ptr)
	v, _ := s.OwnedBy(1)
	assert.Equal(t, 5, *v)
}

func TestAddUniqueReturnsExistingWithoutDiagnostic(t *testing.T) {
	w := NewWorld(nil)
	s := NewComponentStore[int](w, "counter", nil)

	first := s.AddUnique(7, 1)
	second := s.AddUnique(7, 2)

	assert.Same(t, first, second)
	assert.Equal(t, 1, *second, "existing component must be returned untouched")
	assert.Equal(t, 1, s.Len())
}

func TestDestroyEntityCascadesAcrossStores(t *testing.T) {
	w := NewWorld(nil)
	a := NewComponentStore[int](w, "a", nil)
	b := NewComponentStore[string](w, "b", nil)

	e := w.NewEntity()
	a.AddTo(e, 42)
	b.AddTo(e, "hi")

	w.DestroyEntity(e)

	assert.False(t, a.IsOwnedBy(e))
	assert.False(t, b.IsOwnedBy(e))
}

func TestOwnersSetMatchesSequenceInvariant(t *testing.T) {
	w := NewWorld(nil)
	s := NewComponentStore[int](w, "x", nil)
	entities := []Entity{50, 3, 77, 1, 20}
	for _, e := range entities {
		s.AddTo(e, int(e))
	}
	s.RemoveFrom(3)
	s.RemoveFrom(77)

	owners := ownersOf(s)
	sorted := append([]Entity(nil), owners...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	assert.Equal(t, sorted, owners, "sequence must stay strictly sorted")

	for _, e := range owners {
		assert.True(t, s.IsOwnedBy(e))
	}
}

func TestJoin2IntersectsByOwner(t *testing.T) {
	w := NewWorld(nil)
	a := NewComponentStore[int](w, "a", nil)
	b := NewComponentStore[string](w, "b", nil)

	a.AddTo(1, 10)
	a.AddTo(2, 20)
	a.AddTo(3, 30)
	b.AddTo(2, "two")
	b.AddTo(3, "three")
	b.AddTo(4, "four")

	var matched []Entity
	Join2(a, b, func(e Entity, av *int, bv *string) {
		matched = append(matched, e)
		assert.Equal(t, int(e)*10, *av)
	})
	assert.Equal(t, []Entity{2, 3}, matched)
}

func TestJoin3IntersectsByOwner(t *testing.T) {
	w := NewWorld(nil)
	a := NewComponentStore[int](w, "a", nil)
	b := NewComponentStore[int](w, "b", nil)
	c := NewComponentStore[int](w, "c", nil)
	for _, e := range []Entity{1, 2, 3, 4} {
		a.AddTo(e, 1)
	}
	for _, e := range []Entity{2, 3, 4} {
		b.AddTo(e, 1)
	}
	for _, e := range []Entity{3, 4, 5} {
		c.AddTo(e, 1)
	}
	var matched []Entity
	Join3(a, b, c, func(e Entity, _, _, _ *int) { matched = append(matched, e) })
	assert.Equal(t, []Entity{3, 4}, matched)
}
