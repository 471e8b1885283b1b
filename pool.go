package slabgo

import (
	"reflect"
	"unsafe"
)

// Pool is a typed facade over Allocator: it places values of T directly
// into slab slots, so repeatedly creating and destroying T costs one bitmap
// update instead of a heap allocation.
//
// T must not contain Go pointers (pointers, maps, slices, strings, chans,
// funcs, interfaces). Block memory may live outside the garbage collector's
// view, so pointers stored there would not keep their referents alive;
// NewPool rejects such types at construction.
//
// Like Allocator, a Pool is not safe for concurrent use.
type Pool[T any] struct {
	alloc      *Allocator
	destructor func(*T)
}

// NewPool creates a pool for values of type T, sized automatically from
// sizeof(T). destructor, if non-nil, runs for every value passed to Put and
// for every value still live when Close sweeps the pool.
func NewPool[T any](destructor func(*T), optFns ...Option) (*Pool[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if typeHasPointers(t) {
		return nil, &ErrPointerType{Type: t}
	}

	size := int(t.Size())
	if size == 0 {
		// Zero-size types still need a distinct slot per value.
		size = 1
	}

	alloc, err := New(size, optFns...)
	if err != nil {
		return nil, err
	}

	return &Pool[T]{
		alloc:      alloc,
		destructor: destructor,
	}, nil
}

// Get returns a zeroed *T placed in a slab slot, after running the optional
// init function on it. The pointer is stable until Put.
func (p *Pool[T]) Get(init func(*T)) (*T, error) {
	buf, err := p.alloc.Allocate()
	if err != nil {
		return nil, err
	}

	v := (*T)(unsafe.Pointer(&buf[0]))
	var zero T
	*v = zero // slots are reused without clearing

	if init != nil {
		init(v)
	}
	return v, nil
}

// Put destroys the value and returns its slot to the pool. v must have been
// obtained from this pool's Get; misuse is detected by the underlying
// allocator and handled as a logged no-op.
func (p *Pool[T]) Put(v *T) {
	if v == nil {
		p.alloc.rejectFree("nil value", 0)
		return
	}
	if p.destructor != nil {
		p.destructor(v)
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(v)), p.alloc.unitSize)
	p.alloc.Deallocate(buf)
}

// Close tears the pool down. Every value still live in any block has the
// destructor run before the block's memory is released; skipping that would
// leak whatever the outstanding values own.
func (p *Pool[T]) Close() error {
	if p.alloc.closed {
		return nil
	}

	if p.destructor != nil {
		leaked := 0
		sweep := func(b *block) {
			for i := uint32(0); i < SlotsPerBlock; i++ {
				if b.isSlotAllocated(i) {
					p.destructor((*T)(b.payloadPointer(i, p.alloc.stride)))
					leaked++
				}
			}
		}
		p.alloc.work.each(sweep)
		p.alloc.full.each(sweep)
		p.alloc.logger.LogLeakedObjects(leaked)
	}

	return p.alloc.Close()
}

// Total returns the number of blocks owned by the underlying allocator.
func (p *Pool[T]) Total() int {
	return p.alloc.Total()
}

// Reserved returns the number of warm empty blocks in the underlying
// allocator.
func (p *Pool[T]) Reserved() int {
	return p.alloc.Reserved()
}

// UnitSize returns the per-value slot size in bytes.
func (p *Pool[T]) UnitSize() int {
	return p.alloc.UnitSize()
}

// Reclaim forwards to the underlying allocator's maintenance sweep.
func (p *Pool[T]) Reclaim() int {
	return p.alloc.Reclaim()
}

// PrepareBulk forwards to the underlying allocator, guaranteeing headroom
// for a burst of count Gets.
func (p *Pool[T]) PrepareBulk(count int) error {
	return p.alloc.PrepareBulk(count)
}

// Allocator exposes the underlying allocator for stats and diagnostics.
func (p *Pool[T]) Allocator() *Allocator {
	return p.alloc
}

// typeHasPointers reports whether values of t contain pointer words the
// garbage collector would need to see.
func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, maps, slices, strings, chans, funcs, interfaces,
		// unsafe pointers.
		return true
	}
}
