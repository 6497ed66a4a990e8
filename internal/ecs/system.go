package ecs

// cursor is the minimal surface join needs from a ComponentStore: an
// owner-ID-sorted sequence it can binary-search-skip through. Every
// ComponentStore[T] satisfies this regardless of T.
type cursor interface {
	len() int
	ownerAt(i int) Entity
}

// join performs the multi-cursor intersection: maintain one position per
// cursor, repeatedly pick the maximum current owner ID across cursors,
// binary-search-skip every other cursor forward to catch up, and whenever
// every cursor lands on the same owner, report a match and advance all of
// them by one. Cost is O(sum of store sizes) in the worst case, less when
// store sizes differ, since lagging cursors skip rather than scan.
func join(cursors []cursor, visit func(entity Entity, indices []int)) {
	n := len(cursors)
	if n == 0 {
		return
	}
	pos := make([]int, n)
	for {
		var maxOwner Entity
		for i, c := range cursors {
			if pos[i] >= c.len() {
				return
			}
			if o := c.ownerAt(pos[i]); o > maxOwner {
				maxOwner = o
			}
		}

		aligned := true
		for i, c := range cursors {
			pos[i] = skipTo(c, pos[i], maxOwner)
			if pos[i] >= c.len() {
				return
			}
			if c.ownerAt(pos[i]) != maxOwner {
				aligned = false
			}
		}

		if aligned {
			indices := make([]int, n)
			copy(indices, pos)
			visit(maxOwner, indices)
			for i := range pos {
				pos[i]++
			}
		}
	}
}

// skipTo binary-searches cursor c forward from "from" for the first
// position whose owner is >= target.
func skipTo(c cursor, from int, target Entity) int {
	lo, hi := from, c.len()
	for lo < hi {
		mid := (lo + hi) / 2
		if c.ownerAt(mid) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Join2 invokes visit for every entity owning both a T1 and a T2.
func Join2[T1, T2 any](a *ComponentStore[T1], b *ComponentStore[T2], visit func(Entity, *T1, *T2)) {
	join([]cursor{a, b}, func(e Entity, idx []int) {
		visit(e, &a.records[idx[0]].value, &b.records[idx[1]].value)
	})
}

// Join3 invokes visit for every entity owning a T1, a T2, and a T3.
func Join3[T1, T2, T3 any](a *ComponentStore[T1], b *ComponentStore[T2], c *ComponentStore[T3], visit func(Entity, *T1, *T2, *T3)) {
	join([]cursor{a, b, c}, func(e Entity, idx []int) {
		visit(e, &a.records[idx[0]].value, &b.records[idx[1]].value, &c.records[idx[2]].value)
	})
}
