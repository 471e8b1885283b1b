// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// MapAnon() creates read-write anonymous mappings that back slab blocks.
// Keeping block payloads off the Go heap means the garbage collector never
// scans them, which keeps allocation cost flat no matter how many slots are
// live.
//
// # Platform Support
//
// The package provides a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): Uses mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: Uses VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//
// # Thread Safety
//
// The Close() method is idempotent and protected by atomic operations.
// Callers must ensure no goroutines access Bytes() after Close() returns.
package mmap
