package slabgo

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrOutOfMemory is returned when the memory source cannot supply a new
	// block. The allocator's observable state is unchanged; callers may
	// retry, degrade, or propagate.
	ErrOutOfMemory = errors.New("slabgo: out of memory")

	// ErrClosed is returned when operating on a closed allocator or pool.
	ErrClosed = errors.New("slabgo: allocator is closed")

	// ErrBulkTooLarge is returned by PrepareBulk when the requested count
	// exceeds the 64 slots a single block can hold.
	ErrBulkTooLarge = errors.New("slabgo: bulk count exceeds block capacity")
)

// ErrUnitSizeOutOfRange indicates an unusable unit size at construction.
// No valid configuration exists for such an allocator, so construction
// fails outright.
type ErrUnitSizeOutOfRange struct {
	Size int
}

func (e *ErrUnitSizeOutOfRange) Error() string {
	return fmt.Sprintf("slabgo: unit size %d out of range (0, %d]", e.Size, MaxUnitSize)
}

// ErrPointerType indicates a pool element type that contains Go pointers.
// Block memory may live outside the garbage collector's view, so pointer
// fields stored there would not keep their referents alive.
type ErrPointerType struct {
	Type reflect.Type
}

func (e *ErrPointerType) Error() string {
	return fmt.Sprintf("slabgo: pool element type %s contains pointers", e.Type)
}
