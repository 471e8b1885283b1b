// Package trace records and replays slab allocation workloads.
//
// A trace is a flat stream of allocate/free events captured from a driver
// run (see cmd/slabbench). Replaying a trace reproduces the exact block
// growth and retention behavior of the original run, which makes
// performance regressions bisectable: capture once, replay on every
// candidate build.
//
// Traces compress extremely well (the event stream is two small integers
// per operation), so the encoder supports optional LZ4 for hot
// record/replay loops and ZSTD for archived corpora.
package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Op identifies the kind of a workload event.
type Op uint8

const (
	// OpAlloc allocates one unit and appends it to the live list.
	OpAlloc Op = iota
	// OpFree releases the live-list entry at Event.Index, swap-removing
	// it the way the driver does.
	OpFree
)

// Event is one step of a recorded workload.
type Event struct {
	Op    Op
	Index uint32 // live-list position for OpFree, 0 for OpAlloc
}

// Trace is a recorded workload against a single allocator configuration.
type Trace struct {
	UnitSize uint32
	Events   []Event
}

const (
	magic         = "SLTR"
	formatVersion = 1

	eventSize  = 5 // op byte + uint32 index
	headerSize = 4 + 1 + 1 + 4 + 8
)

var (
	// ErrBadMagic is returned when decoding data that is not a trace.
	ErrBadMagic = errors.New("trace: bad magic")
	// ErrBadVersion is returned for an unsupported format version.
	ErrBadVersion = errors.New("trace: unsupported format version")
)

// Encode writes the trace to w using the given compression.
//
// Layout: magic, version, compression byte, unit size, event count,
// followed by one compressed block of events (see compress.go for the
// block framing).
func Encode(w io.Writer, t *Trace, compression Compression) error {
	header := make([]byte, headerSize)
	copy(header[0:], magic)
	header[4] = formatVersion
	header[5] = byte(compression)
	binary.LittleEndian.PutUint32(header[6:], t.UnitSize)
	binary.LittleEndian.PutUint64(header[10:], uint64(len(t.Events)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("trace: write header: %w", err)
	}

	payload := make([]byte, len(t.Events)*eventSize)
	for i, ev := range t.Events {
		off := i * eventSize
		payload[off] = byte(ev.Op)
		binary.LittleEndian.PutUint32(payload[off+1:], ev.Index)
	}

	block, err := compressBlock(payload, compression)
	if err != nil {
		return fmt.Errorf("trace: compress events: %w", err)
	}

	if _, err := w.Write(block); err != nil {
		return fmt.Errorf("trace: write events: %w", err)
	}
	return nil
}

// Decode reads a trace produced by Encode.
func Decode(r io.Reader) (*Trace, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("trace: read header: %w", err)
	}

	if string(header[0:4]) != magic {
		return nil, ErrBadMagic
	}
	if header[4] != formatVersion {
		return nil, ErrBadVersion
	}

	compression := Compression(header[5])
	unitSize := binary.LittleEndian.Uint32(header[6:])
	count := binary.LittleEndian.Uint64(header[10:])

	block, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("trace: read events: %w", err)
	}

	payload, err := decompressBlock(block, compression)
	if err != nil {
		return nil, fmt.Errorf("trace: decompress events: %w", err)
	}

	if uint64(len(payload)) != count*eventSize {
		return nil, fmt.Errorf("trace: event payload is %d bytes, want %d", len(payload), count*eventSize)
	}

	events := make([]Event, count)
	for i := range events {
		off := i * eventSize
		events[i] = Event{
			Op:    Op(payload[off]),
			Index: binary.LittleEndian.Uint32(payload[off+1:]),
		}
	}

	return &Trace{
		UnitSize: unitSize,
		Events:   events,
	}, nil
}
