package slabgo

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func testAllocator(t *testing.T) *Allocator {
	t.Helper()

	a, err := New(16)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestBlockSlotLifecycle(t *testing.T) {
	a := testAllocator(t)
	b := a.work.head

	require.True(t, b.isEmpty())
	require.False(t, b.isFull())

	// Slots come out lowest index first, every time.
	for i := uint32(0); i < SlotsPerBlock; i++ {
		require.False(t, b.isSlotAllocated(i))
		require.Equal(t, i, b.allocateSlot())
		require.True(t, b.isSlotAllocated(i))
	}
	require.True(t, b.isFull())

	b.freeSlot(17)
	require.False(t, b.isFull())
	require.Equal(t, uint32(17), b.allocateSlot())

	for i := uint32(0); i < SlotsPerBlock; i++ {
		b.freeSlot(i)
	}
	require.True(t, b.isEmpty())
}

func TestSlotHeaderResolvesBlockBase(t *testing.T) {
	a := testAllocator(t)
	b := a.work.head

	for i := uint32(0); i < SlotsPerBlock; i++ {
		p := b.payloadPointer(i, a.stride)

		index, back := readSlotHeader(p)
		require.Equal(t, i, index)
		require.Equal(t, b.base, uintptr(p)-uintptr(back))
	}
}

func TestBlockPayloadBounds(t *testing.T) {
	a := testAllocator(t)
	b := a.work.head

	first := b.payload(0, a.stride, a.unitSize)
	last := b.payload(SlotsPerBlock-1, a.stride, a.unitSize)

	require.Len(t, first, int(a.unitSize))
	require.Equal(t, int(a.unitSize), cap(first)) // no room to grow into the next slot

	end := uintptr(unsafe.Pointer(&last[0])) + uintptr(a.unitSize)
	require.LessOrEqual(t, end, b.base+uintptr(len(b.data)))
}

func TestBlockList(t *testing.T) {
	collect := func(l *blockList) []uint32 {
		var ids []uint32
		l.each(func(b *block) { ids = append(ids, b.id) })
		return ids
	}

	newTestBlock := func(id uint32) *block {
		return &block{id: id}
	}

	t.Run("PushFrontOrdersByRecency", func(t *testing.T) {
		var l blockList
		require.True(t, l.empty())

		for id := uint32(0); id < 3; id++ {
			l.pushFront(newTestBlock(id))
		}

		require.Equal(t, 3, l.len())
		require.Equal(t, []uint32{2, 1, 0}, collect(&l))
	})

	t.Run("RemoveHead", func(t *testing.T) {
		var l blockList
		blocks := []*block{newTestBlock(0), newTestBlock(1), newTestBlock(2)}
		for _, b := range blocks {
			l.pushFront(b)
		}

		l.remove(blocks[2])
		require.Equal(t, []uint32{1, 0}, collect(&l))
	})

	t.Run("RemoveMiddleAndTail", func(t *testing.T) {
		var l blockList
		blocks := []*block{newTestBlock(0), newTestBlock(1), newTestBlock(2)}
		for _, b := range blocks {
			l.pushFront(b)
		}

		l.remove(blocks[1])
		require.Equal(t, []uint32{2, 0}, collect(&l))

		l.remove(blocks[0])
		require.Equal(t, []uint32{2}, collect(&l))
	})

	t.Run("RemoveLastEmptiesList", func(t *testing.T) {
		var l blockList
		b := newTestBlock(0)
		l.pushFront(b)

		l.remove(b)
		require.True(t, l.empty())
		require.Zero(t, l.len())
		require.Empty(t, collect(&l))
	})

	t.Run("SpliceBetweenLists", func(t *testing.T) {
		var work, full blockList
		blocks := []*block{newTestBlock(0), newTestBlock(1), newTestBlock(2)}
		for _, b := range blocks {
			work.pushFront(b)
		}

		work.remove(blocks[1])
		full.pushFront(blocks[1])

		require.Equal(t, []uint32{2, 0}, collect(&work))
		require.Equal(t, []uint32{1}, collect(&full))

		full.remove(blocks[1])
		work.pushFront(blocks[1])
		require.Equal(t, []uint32{1, 2, 0}, collect(&work))
		require.True(t, full.empty())
	})
}
