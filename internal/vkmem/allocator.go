// Package vkmem implements the buffer sub-allocator: a first-fit,
// coalescing free-list over a single contiguous range, the policy dieselvk
// uses to carve vertex/index/staging/uniform allocations out of one
// vk.Buffer + vk.DeviceMemory pair per usage class.
//
// The algorithm itself has no Vulkan dependency -- it operates purely on
// offsets and sizes -- so it lives here where it can be tested without a
// device. Package resourcedb binds one Allocator to an actual buffer/memory
// pair per usage class (see resourcedb.go).
package vkmem

// Allocation describes one live carve-out of an Allocator's range. Padding
// is recorded on the allocation, not the free block it came from, so
// free-time accounting can reclaim exactly size+padding bytes.
type Allocation struct {
	Offset  uint64
	Size    uint64
	Padding uint64
}

// Bytes returns the total span (size+padding) this allocation reserves.
func (a Allocation) Bytes() uint64 { return a.Size + a.Padding }

// freeBlock is one node of the doubly-linked free list, ordered ascending
// by offset. The list is rooted at a zero-size sentinel entry block that is
// never itself allocated from.
type freeBlock struct {
	offset, size uint64
	prev, next   *freeBlock
}

// Allocator is a first-fit, coalescing sub-allocator over a single
// contiguous range [0, total).
type Allocator struct {
	total    uint64
	used     uint64 // sum of live allocation Bytes()
	sentinel *freeBlock
}

// NewAllocator builds an allocator over a fresh range of the given total
// size, entirely free.
func NewAllocator(total uint64) *Allocator {
	sentinel := &freeBlock{}
	if total > 0 {
		real := &freeBlock{offset: 0, size: total}
		sentinel.next = real
		real.prev = sentinel
	}
	return &Allocator{total: total, sentinel: sentinel}
}

// Allocate reserves size bytes with no padding. See AllocatePadded.
func (a *Allocator) Allocate(size uint64) (Allocation, bool) {
	return a.AllocatePadded(size, 0)
}

// AllocatePadded reserves size+padding bytes via first-fit over the free
// list, recording padding on the returned Allocation. An exact-fit block is
// removed from the list; a larger block is shrunk from its head.
func (a *Allocator) AllocatePadded(size, padding uint64) (Allocation, bool) {
	need := size + padding
	if need == 0 {
		return Allocation{}, false
	}
	for b := a.sentinel.next; b != nil; b = b.next {
		if b.size < need {
			continue
		}
		alloc := Allocation{Offset: b.offset, Size: size, Padding: padding}
		if b.size == need {
			a.unlink(b)
		} else {
			b.offset += need
			b.size -= need
		}
		a.used += need
		return alloc, true
	}
	return Allocation{}, false
}

func (a *Allocator) unlink(b *freeBlock) {
	b.prev.next = b.next
	if b.next != nil {
		b.next.prev = b.prev
	}
}

// Free returns alloc's span to the free list, coalescing with whichever of
// its immediate neighbors (by offset) are adjacent. Exactly one of four
// cases applies: merge with both neighbors, merge with only the previous,
// merge with only the next, or insert a standalone block -- the invariant
// this maintains is that no two free blocks are ever left adjacent.
func (a *Allocator) Free(alloc Allocation) {
	need := alloc.Bytes()
	if need == 0 {
		return
	}
	a.used -= need
	offset, size := alloc.Offset, need

	prev := a.sentinel
	cur := a.sentinel.next
	for cur != nil && cur.offset < offset {
		prev = cur
		cur = cur.next
	}

	mergePrev := prev != a.sentinel && prev.offset+prev.size == offset
	mergeNext := cur != nil && offset+size == cur.offset

	switch {
	case mergePrev && mergeNext:
		prev.size += size + cur.size
		a.unlink(cur)
	case mergePrev:
		prev.size += size
	case mergeNext:
		cur.offset = offset
		cur.size += size
	default:
		nb := &freeBlock{offset: offset, size: size, prev: prev, next: cur}
		prev.next = nb
		if cur != nil {
			cur.prev = nb
		}
	}
}

// FreeSpace reports total bytes not currently allocated.
func (a *Allocator) FreeSpace() uint64 { return a.total - a.used }

// UsedSpace reports total bytes currently allocated (size+padding summed).
func (a *Allocator) UsedSpace() uint64 { return a.used }

// FreeRange describes one block in the free list, for tests/diagnostics.
type FreeRange struct {
	Offset, Size uint64
}

// FreeBlocks returns the current free list in ascending-offset order.
func (a *Allocator) FreeBlocks() []FreeRange {
	var out []FreeRange
	for b := a.sentinel.next; b != nil; b = b.next {
		out = append(out, FreeRange{Offset: b.offset, Size: b.size})
	}
	return out
}
