package mem

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/hupe1980/slabgo/internal/mmap"
)

// Alignment is the byte alignment guaranteed for acquired regions.
// One cache line keeps adjacent slots from false-sharing when callers
// hand loaned regions to different goroutines.
const Alignment = 64

var (
	// ErrUnknownRegion is returned when releasing memory that was not
	// acquired from this source.
	ErrUnknownRegion = errors.New("mem: region not acquired from this source")
	// ErrInvalidSize is returned for non-positive acquisition sizes.
	ErrInvalidSize = errors.New("mem: invalid size")
)

// Source supplies and reclaims the raw memory behind slab blocks.
// Acquire must return a zeroed region of exactly size bytes, aligned to
// Alignment. Release is called with the exact slice returned by Acquire.
//
// Implementations must be safe for use from a single goroutine at a time;
// MmapSource additionally tolerates sharing across allocators.
type Source interface {
	Acquire(size int) ([]byte, error)
	Release(buf []byte) error
}

// HeapSource allocates block memory on the Go heap.
// Released regions are left to the garbage collector. The zero value is
// ready to use.
type HeapSource struct{}

// NewHeapSource returns a heap-backed Source.
func NewHeapSource() *HeapSource {
	return &HeapSource{}
}

// Acquire allocates a zeroed, cache-line aligned byte slice.
func (s *HeapSource) Acquire(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	// Over-allocate so an aligned offset always exists; the backing array
	// stays reachable through the returned slice.
	buf := make([]byte, size+Alignment)

	addr := uintptr(unsafe.Pointer(&buf[0]))
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)], nil
}

// Release is a no-op; the garbage collector reclaims heap regions once the
// allocator drops its references.
func (s *HeapSource) Release(buf []byte) error {
	if buf == nil {
		return ErrUnknownRegion
	}
	return nil
}

// MmapSource allocates block memory from anonymous OS mappings, keeping it
// off the Go heap. Release unmaps immediately.
type MmapSource struct {
	mu       sync.Mutex
	mappings map[*byte]*mmap.Mapping
}

// NewMmapSource returns an mmap-backed Source.
func NewMmapSource() *MmapSource {
	return &MmapSource{
		mappings: make(map[*byte]*mmap.Mapping),
	}
}

// Acquire creates an anonymous mapping of the given size.
func (s *MmapSource) Acquire(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	m, err := mmap.MapAnon(size)
	if err != nil {
		return nil, err
	}

	data := m.Bytes()

	s.mu.Lock()
	s.mappings[&data[0]] = m
	s.mu.Unlock()

	return data[:size:size], nil
}

// Release unmaps the region. The slice must be the one returned by Acquire.
func (s *MmapSource) Release(buf []byte) error {
	if len(buf) == 0 {
		return ErrUnknownRegion
	}

	s.mu.Lock()
	m, ok := s.mappings[&buf[0]]
	if ok {
		delete(s.mappings, &buf[0])
	}
	s.mu.Unlock()

	if !ok {
		return ErrUnknownRegion
	}
	return m.Close()
}

// Active returns the number of live mappings. Useful in tests and leak
// checks.
func (s *MmapSource) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mappings)
}
