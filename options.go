package slabgo

import (
	"log/slog"

	"github.com/hupe1980/slabgo/mem"
)

// MemoryAcquirer is an interface for budgeting block memory.
// resource.Controller satisfies it; custom implementations can integrate
// with whatever admission control the host application uses.
//
// The allocator only ever uses the non-blocking path: block growth either
// fits the budget immediately or the operation reports ErrOutOfMemory.
type MemoryAcquirer interface {
	TryAcquireMemory(bytes int64) bool
	ReleaseMemory(bytes int64)
}

type options struct {
	reservedLimit uint32
	logger        *Logger
	metrics       MetricsCollector
	source        mem.Source
	acquirer      MemoryAcquirer
	reclaimAll    bool
}

// Option configures allocator and pool construction.
type Option func(*options)

// WithReservedLimit sets the maximum number of fully-empty blocks the
// allocator keeps warm before physically releasing one. Values below 1 are
// clamped to 1 so at least one spare block always survives.
func WithReservedLimit(limit int) Option {
	return func(o *options) {
		if limit < 1 {
			limit = 1
		}
		o.reservedLimit = uint32(limit)
	}
}

// WithMemorySource sets the memory source used for block storage.
// Defaults to a heap-backed source; use mem.NewMmapSource() to keep block
// payloads off the Go heap.
func WithMemorySource(s mem.Source) Option {
	return func(o *options) {
		if s != nil {
			o.source = s
		}
	}
}

// WithMemoryAcquirer sets a memory budget consulted before every block
// creation. When the budget rejects growth, Allocate and PrepareBulk return
// ErrOutOfMemory.
//
// Example with a shared controller:
//
//	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	a, _ := slabgo.New(128, slabgo.WithMemoryAcquirer(ctrl))
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// WithReclaimAll makes Reclaim destroy every fully-empty block instead of
// trimming down to the reserved limit. The per-deallocate retention policy
// is unaffected.
func WithReclaimAll() Option {
	return func(o *options) {
		o.reclaimAll = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &slabgo.BasicMetricsCollector{}
//	a, _ := slabgo.New(64, slabgo.WithMetricsCollector(metrics))
//	// ... use a ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithLogger configures structured logging for diagnostics such as invalid
// frees. Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := slabgo.NewJSONLogger(slog.LevelWarn)
//	a, _ := slabgo.New(64, slabgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		reservedLimit: DefaultReservedLimit,
		logger:        NoopLogger(),
		metrics:       NoopMetricsCollector{},
		source:        mem.NewHeapSource(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
