package slabgo

import (
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slabgo/internal/bitops"
	"github.com/hupe1980/slabgo/mem"
)

const (
	// MaxUnitSize is the hard ceiling for a unit size, after 8-byte
	// rounding.
	MaxUnitSize = 4096

	// DefaultReservedLimit is the default number of fully-empty blocks
	// kept warm as spare capacity.
	DefaultReservedLimit = 4

	// unitAlign is the alignment every unit size is rounded up to.
	unitAlign = 8
)

// Allocator is a fixed-size slab allocator. It hands out equal-size memory
// regions from 64-slot blocks, tracking occupancy with one bitmap word per
// block instead of per-allocation bookkeeping.
//
// Blocks are partitioned into two circular lists: work (at least one free
// slot, allocation source, most recently touched block at the head) and
// full (saturated, excluded from allocation search). Moves between the two
// are O(1) splices.
//
// An Allocator is not safe for concurrent use. Give each goroutine its own
// instance or serialize access externally.
type Allocator struct {
	unitSize uint32  // caller-requested size rounded up to unitAlign
	stride   uintptr // slotHeaderSize + unitSize

	work blockList // blocks with free capacity
	full blockList // saturated blocks

	// byBase resolves a loaned region back to its owning block without
	// dereferencing raw pointers: slot headers yield the block base
	// address, the table yields the block.
	byBase map[uintptr]*block

	totalCount    uint32
	reservedCount uint32 // fully-empty blocks currently in work
	reservedLimit uint32
	nextBlockID   uint32

	source     mem.Source
	acquirer   MemoryAcquirer
	logger     *Logger
	metrics    MetricsCollector
	reclaimAll bool
	closed     bool

	stats Stats
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	BlocksCreated   uint64 // historical: blocks ever created
	BlocksDestroyed uint64 // historical: blocks physically released
	Allocs          uint64 // historical: successful allocations
	Frees           uint64 // historical: successful deallocations
	InvalidFrees    uint64 // historical: rejected deallocations
}

// New creates an Allocator for units of unitSize bytes.
//
// unitSize is rounded up to 8 bytes and must not exceed MaxUnitSize after
// rounding; otherwise an ErrUnitSizeOutOfRange is returned and no resources
// are acquired. One block is created eagerly so the first Allocate never
// pays for block setup.
func New(unitSize int, optFns ...Option) (*Allocator, error) {
	if unitSize <= 0 || unitSize > MaxUnitSize {
		return nil, &ErrUnitSizeOutOfRange{Size: unitSize}
	}

	o := applyOptions(optFns)

	rounded := (uint32(unitSize) + unitAlign - 1) &^ (unitAlign - 1)

	a := &Allocator{
		unitSize:      rounded,
		stride:        uintptr(slotHeaderSize + rounded),
		byBase:        make(map[uintptr]*block),
		reservedLimit: o.reservedLimit,
		source:        o.source,
		acquirer:      o.acquirer,
		logger:        o.logger.WithUnitSize(rounded),
		metrics:       o.metrics,
		reclaimAll:    o.reclaimAll,
	}

	b, err := a.createBlock()
	if err != nil {
		return nil, err
	}
	a.work.pushFront(b)
	a.reservedCount = 1

	return a, nil
}

// createBlock allocates and registers a new block. The caller links it into
// a list and maintains the reserved count.
func (a *Allocator) createBlock() (*block, error) {
	b, err := newBlock(a)
	if err != nil {
		return nil, err
	}

	a.byBase[b.base] = b
	a.totalCount++
	a.stats.BlocksCreated++
	a.metrics.RecordBlockCreate(len(b.data))
	a.logger.LogBlockCreate(b.id, len(b.data))

	return b, nil
}

// destroyBlock releases a block that has already been unlinked.
func (a *Allocator) destroyBlock(b *block) error {
	size := len(b.data)
	id := b.id

	delete(a.byBase, b.base)
	a.totalCount--
	a.stats.BlocksDestroyed++

	err := b.destroy()

	a.metrics.RecordBlockDestroy(size)
	a.logger.LogBlockDestroy(id, size)
	return err
}

// Allocate returns a loaned region of UnitSize() bytes.
//
// The region's contents are unspecified (slots are reused without
// clearing) and its address is stable until it is passed to Deallocate.
// The lowest-indexed free slot of the head work block is always chosen,
// so allocation order is deterministic. Returns ErrOutOfMemory if a new
// block was needed and could not be created; the allocator's state is
// then unchanged.
func (a *Allocator) Allocate() ([]byte, error) {
	buf, err := a.allocate()
	a.metrics.RecordAllocate(err)
	return buf, err
}

func (a *Allocator) allocate() ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}

	if a.work.empty() {
		b, err := a.createBlock()
		if err != nil {
			return nil, err
		}
		a.work.pushFront(b)
		a.reservedCount++
	}

	b := a.work.head
	if b.isEmpty() {
		a.reservedCount--
	}

	index := b.allocateSlot()

	if b.isFull() {
		a.work.remove(b)
		a.full.pushFront(b)
	}

	a.stats.Allocs++
	return b.payload(index, a.stride, a.unitSize), nil
}

// Deallocate returns a loaned region to the allocator.
//
// Invalid input — a nil or foreign region, an out-of-range slot index, a
// region owned by another allocator, or a double free — is logged and
// ignored; the allocator's state is never corrupted by caller misuse.
func (a *Allocator) Deallocate(buf []byte) {
	if a.closed {
		a.rejectFree("allocator closed", 0)
		return
	}
	if len(buf) == 0 {
		a.rejectFree("nil region", 0)
		return
	}

	p := unsafe.Pointer(&buf[0])
	addr := uintptr(p)

	index, back := readSlotHeader(p)
	if index >= SlotsPerBlock {
		a.rejectFree("slot index out of range", addr)
		return
	}
	if uintptr(back) > addr {
		a.rejectFree("corrupt back offset", addr)
		return
	}

	b, ok := a.byBase[addr-uintptr(back)]
	if !ok || b.owner != a {
		a.rejectFree("region not owned by this allocator", addr)
		return
	}
	if b.base+uintptr(index)*a.stride+slotHeaderSize != addr {
		a.rejectFree("region does not match slot layout", addr)
		return
	}
	if !b.isSlotAllocated(index) {
		a.rejectFree("double free", addr)
		return
	}

	wasFull := b.isFull()
	b.freeSlot(index)
	a.stats.Frees++
	a.metrics.RecordDeallocate()

	if wasFull {
		a.full.remove(b)
		a.work.pushFront(b)
		return
	}

	if b.isEmpty() {
		a.reservedCount++
		if a.reservedCount > a.reservedLimit {
			a.work.remove(b)
			a.reservedCount--
			a.destroyBlock(b)
		}
	}
}

func (a *Allocator) rejectFree(reason string, addr uintptr) {
	a.stats.InvalidFrees++
	a.metrics.RecordInvalidFree()
	a.logger.LogInvalidFree(reason, addr)
}

// Reclaim destroys fully-empty blocks beyond the reserved limit (or every
// empty block when WithReclaimAll is set) and returns the number released.
// Deallocate already trims opportunistically; Reclaim lets callers force
// the sweep at a convenient point, such as an idle period.
func (a *Allocator) Reclaim() int {
	if a.closed {
		return 0
	}

	keep := int(a.reservedLimit)
	if a.reclaimAll {
		keep = 0
	}

	var empties []*block
	a.work.each(func(b *block) {
		if b.isEmpty() {
			empties = append(empties, b)
		}
	})

	freed := 0
	// Destroy from the back of the list first; the head end is the most
	// recently touched and the cheapest to keep warm.
	for i := len(empties) - 1; i >= keep; i-- {
		b := empties[i]
		a.work.remove(b)
		a.reservedCount--
		a.destroyBlock(b)
		freed++
	}

	a.metrics.RecordReclaim(freed)
	a.logger.LogReclaim(freed)
	return freed
}

// PrepareBulk guarantees that the head work block can absorb a burst of
// count allocations without growing mid-burst. count must be at most 64.
// If no work block has count free slots, exactly one block is created.
// On failure nothing changes.
func (a *Allocator) PrepareBulk(count int) error {
	if a.closed {
		return ErrClosed
	}
	if count < 0 || count > SlotsPerBlock {
		return ErrBulkTooLarge
	}

	var found *block
	a.work.each(func(b *block) {
		if found == nil && int(freeSlots(b)) >= count {
			found = b
		}
	})

	if found != nil {
		if found != a.work.head {
			a.work.remove(found)
			a.work.pushFront(found)
		}
		return nil
	}

	b, err := a.createBlock()
	if err != nil {
		return err
	}
	a.work.pushFront(b)
	a.reservedCount++
	return nil
}

// Close releases every block back to the memory source. Outstanding loans
// become invalid. Close is idempotent; all operations after it fail or
// no-op.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var blocks []*block
	a.work.each(func(b *block) { blocks = append(blocks, b) })
	a.full.each(func(b *block) { blocks = append(blocks, b) })

	var firstErr error
	for _, b := range blocks {
		if err := a.destroyBlock(b); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	a.work = blockList{}
	a.full = blockList{}
	a.byBase = nil
	a.reservedCount = 0

	return firstErr
}

// Total returns the number of blocks in either list.
func (a *Allocator) Total() int {
	return int(a.totalCount)
}

// Reserved returns the number of fully-empty blocks currently kept warm in
// the work list.
func (a *Allocator) Reserved() int {
	return int(a.reservedCount)
}

// UnitSize returns the size of a loaned region in bytes: the requested
// unit size rounded up to 8.
func (a *Allocator) UnitSize() int {
	return int(a.unitSize)
}

// Outstanding returns the number of slots currently on loan.
func (a *Allocator) Outstanding() int {
	n := 0
	count := func(b *block) {
		n += SlotsPerBlock - int(freeSlots(b))
	}
	a.work.each(count)
	a.full.each(count)
	return n
}

// Stats returns a snapshot of allocator counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// LiveSet returns the set of outstanding slots as global IDs
// (blockID*64 + slot index). Intended for leak diagnostics and debugging;
// the snapshot is detached from allocator state.
func (a *Allocator) LiveSet() *roaring.Bitmap {
	live := roaring.New()
	collect := func(b *block) {
		for i := uint32(0); i < SlotsPerBlock; i++ {
			if b.isSlotAllocated(i) {
				live.Add(b.id*SlotsPerBlock + i)
			}
		}
	}
	a.work.each(collect)
	a.full.each(collect)
	return live
}

func (a *Allocator) String() string {
	return fmt.Sprintf(
		"Allocator{unit: %d, blocks: %d, reserved: %d/%d, outstanding: %d}",
		a.unitSize,
		a.totalCount,
		a.reservedCount,
		a.reservedLimit,
		a.Outstanding(),
	)
}

func freeSlots(b *block) uint32 {
	return bitops.OnesCount(b.bitmap)
}
