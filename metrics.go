package slabgo

import "sync/atomic"

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
//
// The hooks deliberately carry no timing information: a slab allocation is a
// handful of nanoseconds and calling time.Now around it would dominate the
// measurement. Use the benchmarks for latency numbers.
type MetricsCollector interface {
	// RecordAllocate is called after each Allocate. err is nil on success.
	RecordAllocate(err error)

	// RecordDeallocate is called after each successful Deallocate.
	RecordDeallocate()

	// RecordInvalidFree is called when a Deallocate is rejected.
	RecordInvalidFree()

	// RecordBlockCreate is called when a new block is created.
	// bytes is the block's memory footprint.
	RecordBlockCreate(bytes int)

	// RecordBlockDestroy is called when a block is physically released.
	RecordBlockDestroy(bytes int)

	// RecordReclaim is called after an explicit Reclaim sweep.
	// freed is the number of blocks destroyed.
	RecordReclaim(freed int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocate(error)   {}
func (NoopMetricsCollector) RecordDeallocate()      {}
func (NoopMetricsCollector) RecordInvalidFree()     {}
func (NoopMetricsCollector) RecordBlockCreate(int)  {}
func (NoopMetricsCollector) RecordBlockDestroy(int) {}
func (NoopMetricsCollector) RecordReclaim(int)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocCount      atomic.Int64
	AllocErrors     atomic.Int64
	FreeCount       atomic.Int64
	InvalidFrees    atomic.Int64
	BlocksCreated   atomic.Int64
	BlocksDestroyed atomic.Int64
	BytesCreated    atomic.Int64
	BytesDestroyed  atomic.Int64
	ReclaimCount    atomic.Int64
	ReclaimedBlocks atomic.Int64
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
	}
}

// RecordDeallocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDeallocate() {
	b.FreeCount.Add(1)
}

// RecordInvalidFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInvalidFree() {
	b.InvalidFrees.Add(1)
}

// RecordBlockCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockCreate(bytes int) {
	b.BlocksCreated.Add(1)
	b.BytesCreated.Add(int64(bytes))
}

// RecordBlockDestroy implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockDestroy(bytes int) {
	b.BlocksDestroyed.Add(1)
	b.BytesDestroyed.Add(int64(bytes))
}

// RecordReclaim implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReclaim(freed int) {
	b.ReclaimCount.Add(1)
	b.ReclaimedBlocks.Add(int64(freed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocCount:      b.AllocCount.Load(),
		AllocErrors:     b.AllocErrors.Load(),
		FreeCount:       b.FreeCount.Load(),
		InvalidFrees:    b.InvalidFrees.Load(),
		BlocksCreated:   b.BlocksCreated.Load(),
		BlocksDestroyed: b.BlocksDestroyed.Load(),
		BytesCreated:    b.BytesCreated.Load(),
		BytesDestroyed:  b.BytesDestroyed.Load(),
		ReclaimCount:    b.ReclaimCount.Load(),
		ReclaimedBlocks: b.ReclaimedBlocks.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocCount      int64
	AllocErrors     int64
	FreeCount       int64
	InvalidFrees    int64
	BlocksCreated   int64
	BlocksDestroyed int64
	BytesCreated    int64
	BytesDestroyed  int64
	ReclaimCount    int64
	ReclaimedBlocks int64
}
