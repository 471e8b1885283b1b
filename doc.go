// Package slabgo provides a fixed-size slab allocator for Go.
//
// A slab allocator serves exactly one unit size per instance and batches
// allocations into 64-slot blocks, tracking occupancy with a single bitmap
// word per block. For workloads that repeatedly allocate and free
// same-sized objects (parser nodes, network buffers, pooled simulation
// objects) this is far cheaper than a general-purpose allocator: allocate
// is a count-trailing-zeros on the head block's bitmap, deallocate is a
// header read plus one bit set.
//
// # Quick Start
//
//	a, err := slabgo.New(64)
//	if err != nil { ... }
//	defer a.Close()
//
//	buf, err := a.Allocate() // 64-byte region, address stable until freed
//	if err != nil { ... }
//	// use buf...
//	a.Deallocate(buf)
//
// Typed pooling with construction and destruction:
//
//	type node struct{ x, y float64 }
//
//	pool, _ := slabgo.NewPool[node](nil)
//	defer pool.Close()
//
//	n, _ := pool.Get(func(n *node) { n.x = 1 })
//	pool.Put(n)
//
// # Block Management
//
// Blocks live on one of two circular lists: work (blocks with at least one
// free slot) and full. A block that saturates is spliced from work to full
// in O(1); the first free returns it to the head of work. Fully-empty
// blocks are kept as warm spares up to a configurable limit
// (WithReservedLimit, default 4) before being released back to the memory
// source — the hysteresis avoids thrashing block creation at a workload's
// steady-state boundary. Reclaim() forces the trim at a convenient moment,
// and PrepareBulk(n) guarantees a following burst of n allocations will
// not grow the pool mid-burst.
//
// # Memory Sources
//
// Block storage comes from an injected mem.Source. The default is the Go
// heap; mem.NewMmapSource() keeps block payloads in anonymous OS mappings
// the garbage collector never scans. A resource.Controller can be attached
// (WithMemoryAcquirer) to cap the combined footprint of several
// allocators.
//
// # Concurrency
//
// Allocator and Pool are single-threaded by design: no internal locking
// exists. Give each goroutine its own instance or serialize access
// externally. Misuse of Deallocate (foreign pointers, double frees) is
// detected on a best-effort basis and degrades to a logged no-op, never
// state corruption.
package slabgo
