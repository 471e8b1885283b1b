// Package mem provides the memory sources that back slab blocks.
//
// A Source is the pluggable allocation primitive injected into an allocator
// at construction time. Two implementations ship with slabgo:
//
//   - HeapSource: cache-line aligned allocations on the Go heap. Safe
//     default; freed blocks are reclaimed by the garbage collector.
//   - MmapSource: anonymous memory mappings outside the Go heap. Block
//     memory is invisible to the garbage collector and is returned to the
//     OS immediately on release.
//
// Custom implementations (guard pages, NUMA pinning, instrumentation) only
// need to satisfy the two-method Source interface.
package mem
