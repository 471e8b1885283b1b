package slabgo

import (
	"unsafe"

	"github.com/hupe1980/slabgo/internal/bitops"
)

const (
	// SlotsPerBlock is the fixed slot capacity of a block, matching the
	// width of the occupancy bitmap word.
	SlotsPerBlock = 64

	// slotHeaderSize precedes every payload: a uint32 slot index and a
	// uint32 byte offset from the payload back to the block base.
	slotHeaderSize = 8

	// bitmapFree is the bitmap value of a fully empty block (bit=1 means
	// the slot is free).
	bitmapFree = ^uint64(0)
)

// block is a single arena of 64 fixed-size slots backed by one region from
// the memory source. prev/next serve whichever circular list (work or full)
// currently holds the block.
type block struct {
	owner  *Allocator
	prev   *block
	next   *block
	bitmap uint64
	id     uint32
	data   []byte
	base   uintptr
}

// newBlock acquires one region from the source and lays out the 64 slot
// headers. On failure the allocator's state is untouched.
func newBlock(a *Allocator) (*block, error) {
	size := SlotsPerBlock * int(a.stride)

	if a.acquirer != nil && !a.acquirer.TryAcquireMemory(int64(size)) {
		return nil, ErrOutOfMemory
	}

	data, err := a.source.Acquire(size)
	if err != nil {
		if a.acquirer != nil {
			a.acquirer.ReleaseMemory(int64(size))
		}
		a.logger.Error("block allocation failed", "error", err, "bytes", size)
		return nil, ErrOutOfMemory
	}

	b := &block{
		owner:  a,
		bitmap: bitmapFree,
		id:     a.nextBlockID,
		data:   data,
		base:   uintptr(unsafe.Pointer(&data[0])),
	}
	a.nextBlockID++

	for i := uint32(0); i < SlotsPerBlock; i++ {
		off := uintptr(i) * a.stride
		// Offset stored in the header leads from the payload start back
		// to the block base, so resolution needs no traversal.
		writeSlotHeader(data[off:off+slotHeaderSize], i, uint32(off)+slotHeaderSize)
	}

	return b, nil
}

// destroy returns the block's memory to the source. The block must already
// be unlinked from its list.
func (b *block) destroy() error {
	a := b.owner
	size := len(b.data)

	err := a.source.Release(b.data)
	if err != nil {
		a.logger.Error("block release failed", "error", err, "block_id", b.id)
	}
	if a.acquirer != nil {
		a.acquirer.ReleaseMemory(int64(size))
	}

	b.data = nil
	b.owner = nil
	return err
}

func (b *block) isFull() bool {
	return b.bitmap == 0
}

func (b *block) isEmpty() bool {
	return b.bitmap == bitmapFree
}

// isSlotAllocated reports whether the slot at index holds a live
// allocation (bit is 0).
func (b *block) isSlotAllocated(index uint32) bool {
	return bitops.Get(b.bitmap, index) == 0
}

// allocateSlot claims the lowest-indexed free slot and returns its index.
// Precondition: the block is not full; TrailingZeros on a zero word is
// undefined, so every call site checks fullness first.
func (b *block) allocateSlot() uint32 {
	index := bitops.TrailingZeros(b.bitmap)
	bitops.SetZero(&b.bitmap, index)
	return index
}

// freeSlot marks the slot at index as free again.
func (b *block) freeSlot(index uint32) {
	bitops.SetOne(&b.bitmap, index)
}

// payload returns the loanable region of the slot at index.
func (b *block) payload(index uint32, stride uintptr, unitSize uint32) []byte {
	off := uintptr(index)*stride + slotHeaderSize
	return b.data[off : off+uintptr(unitSize) : off+uintptr(unitSize)]
}

// payloadPointer returns the start of the slot's payload as a pointer.
func (b *block) payloadPointer(index uint32, stride uintptr) unsafe.Pointer {
	off := uintptr(index)*stride + slotHeaderSize
	return unsafe.Pointer(&b.data[off])
}

// writeSlotHeader stores index and back-offset at the start of hdr.
// Headers are 8-byte aligned because the block base is cache-line aligned
// and the stride is a multiple of 8.
func writeSlotHeader(hdr []byte, index, back uint32) {
	*(*uint32)(unsafe.Pointer(&hdr[0])) = index
	*(*uint32)(unsafe.Pointer(&hdr[4])) = back
}

// readSlotHeader reads the header immediately preceding a loaned payload.
// p must point at a payload previously produced by this package; reading
// a foreign pointer here is caller error detected by the later base-table
// lookup.
func readSlotHeader(p unsafe.Pointer) (index, back uint32) {
	index = *(*uint32)(unsafe.Add(p, -slotHeaderSize))
	back = *(*uint32)(unsafe.Add(p, -slotHeaderSize+4))
	return index, back
}

// blockList is an intrusive circular doubly-linked list of blocks.
// All operations are O(1) pointer surgery; iteration starts at head and
// follows next until it wraps.
type blockList struct {
	head *block
	n    int
}

func (l *blockList) empty() bool {
	return l.head == nil
}

func (l *blockList) len() int {
	return l.n
}

// pushFront inserts b as the new head.
func (l *blockList) pushFront(b *block) {
	if l.head == nil {
		b.next = b
		b.prev = b
	} else {
		tail := l.head.prev
		b.next = l.head
		b.prev = tail
		tail.next = b
		l.head.prev = b
	}
	l.head = b
	l.n++
}

// remove unlinks b. b must be a member of this list.
func (l *blockList) remove(b *block) {
	if b.next == b {
		l.head = nil
	} else {
		b.prev.next = b.next
		b.next.prev = b.prev
		if l.head == b {
			l.head = b.next
		}
	}
	b.next = nil
	b.prev = nil
	l.n--
}

// each calls fn for every block in the list. fn must not modify the list;
// callers that unlink blocks collect them first.
func (l *blockList) each(fn func(*block)) {
	if l.head == nil {
		return
	}
	b := l.head
	for {
		fn(b)
		b = b.next
		if b == l.head {
			return
		}
	}
}
