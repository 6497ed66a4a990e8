package vkmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFirstFitAndCoalesce covers scenario S3: allocate A=20, B=30, C=10,
// D=20 into a 100-byte arena; free B then A; confirm the free list
// collapses to {0,50}+{80,20}, grows to {0,60}+{80,20} once C is freed,
// and becomes {0,100} once D is freed too.
func TestFirstFitAndCoalesce(t *testing.T) {
	a := NewAllocator(100)

	allocA, ok := a.Allocate(20)
	require.True(t, ok)
	allocB, ok := a.Allocate(30)
	require.True(t, ok)
	allocC, ok := a.Allocate(10)
	require.True(t, ok)
	allocD, ok := a.Allocate(20)
	require.True(t, ok)

	assert.Equal(t, uint64(0), allocA.Offset)
	assert.Equal(t, uint64(20), allocB.Offset)
	assert.Equal(t, uint64(50), allocC.Offset)
	assert.Equal(t, uint64(60), allocD.Offset)
	assert.Equal(t, []FreeRange{{80, 20}}, a.FreeBlocks())

	a.Free(allocB)
	assert.Equal(t, []FreeRange{{20, 30}, {80, 20}}, a.FreeBlocks())

	a.Free(allocA)
	assert.Equal(t, []FreeRange{{0, 50}, {80, 20}}, a.FreeBlocks())

	a.Free(allocC)
	assert.Equal(t, []FreeRange{{0, 60}, {80, 20}}, a.FreeBlocks())

	a.Free(allocD)
	assert.Equal(t, []FreeRange{{0, 100}}, a.FreeBlocks())
}

func TestNoAdjacentFreeBlocksInvariant(t *testing.T) {
	a := NewAllocator(256)
	var allocs []Allocation
	for i := 0; i < 8; i++ {
		al, ok := a.Allocate(16)
		require.True(t, ok)
		allocs = append(allocs, al)
	}
	// free every other allocation, then the rest, checking the invariant
	// after every single free.
	order := []int{1, 3, 5, 7, 0, 2, 4, 6}
	for _, i := range order {
		a.Free(allocs[i])
		assertNoAdjacentFreeBlocks(t, a)
	}
	assert.Equal(t, []FreeRange{{0, 256}}, a.FreeBlocks())
}

func assertNoAdjacentFreeBlocks(t *testing.T, a *Allocator) {
	t.Helper()
	blocks := a.FreeBlocks()
	for i := 0; i+1 < len(blocks); i++ {
		assert.NotEqual(t, blocks[i].Offset+blocks[i].Size, blocks[i+1].Offset,
			"adjacent free blocks must be coalesced: %+v and %+v", blocks[i], blocks[i+1])
	}
}

// TestAccounting covers invariant 7: free_space == total - sum(live size+padding).
func TestAccounting(t *testing.T) {
	a := NewAllocator(100)
	allocA, _ := a.Allocate(20)
	allocB, ok := a.AllocatePadded(30, 6)
	require.True(t, ok)
	assert.Equal(t, uint64(100-20-36), a.FreeSpace())

	a.Free(allocA)
	assert.Equal(t, uint64(100-36), a.FreeSpace())
	a.Free(allocB)
	assert.Equal(t, uint64(100), a.FreeSpace())
}

func TestAllocateFailsWhenExhausted(t *testing.T) {
	a := NewAllocator(10)
	_, ok := a.Allocate(11)
	assert.False(t, ok)
	_, ok = a.Allocate(10)
	assert.True(t, ok)
	_, ok = a.Allocate(1)
	assert.False(t, ok)
}
