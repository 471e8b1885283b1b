// Command slabbench drives a random allocate/free workload against a slab
// allocator and a plain-heap baseline, and reports wall time per million
// operations for a sweep of unit sizes.
//
// The decision stream (allocate vs free, and which live region to free) is
// generated once per size from a seeded xorshift64 generator, so the slab
// run and the baseline run replay the identical workload. The stream can
// also be recorded to a compressed trace file and replayed on a later
// build:
//
//	slabbench -sizes 16,64,256 -ops 4000000
//	slabbench -sizes 64 -record run.sltr -compression zstd
//	slabbench -replay run.sltr
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/slabgo"
	"github.com/hupe1980/slabgo/mem"
	"github.com/hupe1980/slabgo/trace"
)

func main() {
	var (
		sizesFlag   = flag.String("sizes", "8,16,32,64,128,256,512,1024", "comma-separated unit sizes to sweep")
		ops         = flag.Int("ops", 4_000_000, "operations per run")
		maxLive     = flag.Int("max-live", 100_000, "cap on simultaneously live regions")
		seed        = flag.Uint64("seed", uint64(time.Now().UnixNano()), "workload seed")
		reserved    = flag.Int("reserved", 3, "reserved empty-block limit")
		useMmap     = flag.Bool("mmap", false, "back blocks with anonymous mappings instead of the Go heap")
		opsPerSec   = flag.Float64("rate", 0, "pace the workload at this many ops/sec (0 = unlimited)")
		recordPath  = flag.String("record", "", "record the workload to this trace file")
		replayPath  = flag.String("replay", "", "replay a recorded trace file instead of generating a workload")
		compression = flag.String("compression", "zstd", "trace compression: none, lz4 or zstd")
	)
	flag.Parse()

	if *replayPath != "" {
		if err := replayFile(*replayPath, *reserved, *useMmap, *opsPerSec); err != nil {
			log.Fatalf("replay: %v", err)
		}
		return
	}

	sizes, err := parseSizes(*sizesFlag)
	if err != nil {
		log.Fatalf("invalid -sizes: %v", err)
	}

	comp, ok := trace.ByName(*compression)
	if !ok {
		log.Fatalf("invalid -compression %q", *compression)
	}

	for _, size := range sizes {
		rng := newXorshift64(*seed)
		events := generate(rng, *ops, *maxLive)

		if *recordPath != "" {
			if err := record(*recordPath, size, events, comp); err != nil {
				log.Fatalf("record: %v", err)
			}
		}

		baseline := runBaseline(size, events)
		report(size, "Heap", baseline, len(events))

		slab, err := runSlab(size, *reserved, *useMmap, *opsPerSec, events)
		if err != nil {
			log.Fatalf("slab run (size %d): %v", size, err)
		}
		report(size, "Slab", slab, len(events))

		fmt.Println()
	}
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if size <= 0 || size > slabgo.MaxUnitSize {
			return nil, fmt.Errorf("size %d out of range (0, %d]", size, slabgo.MaxUnitSize)
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// generate builds the shared decision stream: a coin flip between allocate
// and free, freeing a random live region chosen by position.
func generate(rng *xorshift64, ops, maxLive int) []trace.Event {
	events := make([]trace.Event, 0, ops)
	live := 0

	for i := 0; i < ops; i++ {
		if (rng.next()%2 == 0 || live == 0) && live < maxLive {
			events = append(events, trace.Event{Op: trace.OpAlloc})
			live++
		} else if live > 0 {
			events = append(events, trace.Event{
				Op:    trace.OpFree,
				Index: uint32(rng.next() % uint64(live)),
			})
			live--
		}
	}
	return events
}

func record(path string, size int, events []trace.Event, comp trace.Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	t := &trace.Trace{
		UnitSize: uint32(size),
		Events:   events,
	}
	if err := trace.Encode(f, t, comp); err != nil {
		return err
	}
	return f.Close()
}

func replayFile(path string, reserved int, useMmap bool, opsPerSec float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	t, err := trace.Decode(f)
	if err != nil {
		return err
	}

	elapsed, err := runSlab(int(t.UnitSize), reserved, useMmap, opsPerSec, t.Events)
	if err != nil {
		return err
	}
	report(int(t.UnitSize), "Slab", elapsed, len(t.Events))
	return nil
}

func runSlab(size, reserved int, useMmap bool, opsPerSec float64, events []trace.Event) (time.Duration, error) {
	opts := []slabgo.Option{slabgo.WithReservedLimit(reserved)}
	if useMmap {
		opts = append(opts, slabgo.WithMemorySource(mem.NewMmapSource()))
	}

	a, err := slabgo.New(size, opts...)
	if err != nil {
		return 0, err
	}
	defer a.Close()

	var limiter *rate.Limiter
	if opsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opsPerSec), 1)
	}
	ctx := context.Background()

	live := make([][]byte, 0, len(events))

	start := time.Now()
	for _, ev := range events {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return 0, err
			}
		}

		switch ev.Op {
		case trace.OpAlloc:
			buf, err := a.Allocate()
			if err != nil {
				return 0, err
			}
			live = append(live, buf)
		case trace.OpFree:
			i := int(ev.Index)
			a.Deallocate(live[i])
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	elapsed := time.Since(start)

	for _, buf := range live {
		a.Deallocate(buf)
	}
	return elapsed, nil
}

func runBaseline(size int, events []trace.Event) time.Duration {
	live := make([][]byte, 0, len(events))

	start := time.Now()
	for _, ev := range events {
		switch ev.Op {
		case trace.OpAlloc:
			live = append(live, make([]byte, size))
		case trace.OpFree:
			i := int(ev.Index)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	return time.Since(start)
}

func report(size int, name string, elapsed time.Duration, ops int) {
	ms := float64(elapsed.Microseconds()) / 1000
	mops := float64(ops) / 1e6
	fmt.Printf("[Size %d] %s: %.2fms, %.2fms/Mops\n", size, name, ms, ms/mops)
}

// xorshift64 is the same tiny generator the workload format was designed
// around; a fixed seed reproduces the identical event stream everywhere.
type xorshift64 struct {
	state uint64
}

func newXorshift64(seed uint64) *xorshift64 {
	if seed == 0 {
		seed = 123456789
	}
	return &xorshift64{state: seed}
}

func (x *xorshift64) next() uint64 {
	v := x.state
	v ^= v << 12
	v ^= v >> 25
	v ^= v << 27
	x.state = v
	return v * 2685821657736338717
}
