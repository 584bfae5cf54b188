// Package stream recovers complete frames from an arbitrarily-chunked
// byte stream and routes each one through the header, service, and
// verbose codecs.
package stream

import (
	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/dlt/heap"
	"github.com/embworks/dltwire/internal/dlt/service"
	"github.com/embworks/dltwire/internal/dlt/verbose"
)

// Frame is one fully decoded message emitted by the reassembler.
// Exactly one of Record and Arguments is populated for extended-header
// frames; Payload always holds the bytes after the headers.
type Frame struct {
	Raw      []byte
	Header   dlt.StandardHeader
	Extended *dlt.ExtendedHeader

	Record    *service.Record
	Arguments []verbose.Argument
	Payload   []byte
}

// Reassembler accumulates transport chunks and extracts length-delimited
// frames. Transitions are purely data-driven; a frame split across any
// number of Feed calls is reassembled because leftover bytes persist in
// the buffer. Not safe for concurrent use: one producer per instance.
type Reassembler struct {
	buf       []byte
	hp        *heap.Heap
	decoded   uint64
	malformed uint64
}

// New creates a reassembler. When hp is non-nil, emitted frame copies
// are borrowed from it; the caller resets the heap once emitted frames
// are no longer referenced. With a nil heap frames are heap-managed by
// the runtime.
func New(hp *heap.Heap) *Reassembler {
	return &Reassembler{hp: hp}
}

// Decoded reports the number of successfully decoded frames.
func (r *Reassembler) Decoded() uint64 { return r.decoded }

// Malformed reports the number of frames or framing bytes rejected.
func (r *Reassembler) Malformed() uint64 { return r.malformed }

// Pending reports the buffered bytes not yet consumed.
func (r *Reassembler) Pending() int { return len(r.buf) }

// Reset discards buffered bytes and zeroes both counters.
func (r *Reassembler) Reset() {
	r.buf = nil
	r.decoded = 0
	r.malformed = 0
}

// Feed appends chunk to the internal buffer and extracts every complete
// frame currently available, so multiple frames in one chunk are all
// returned before Feed does. A length field below the minimum header
// size triggers a one-byte resynchronization: exactly one buffered byte
// is discarded per malformed-counter increment, so a valid frame
// following a corrupted length field is never dropped wholesale.
func (r *Reassembler) Feed(chunk []byte) []Frame {
	r.buf = append(r.buf, chunk...)

	var frames []Frame
	for {
		declared, ok := dlt.PeekLength(r.buf)
		if !ok {
			break
		}
		if declared < dlt.MinHeaderLen {
			// Corrupt framing: resync by a single byte.
			r.malformed++
			r.buf = r.buf[1:]
			continue
		}
		if len(r.buf) < declared {
			// Await the rest of the frame; counters unchanged.
			break
		}

		raw := r.claim(declared)
		r.buf = r.buf[declared:]

		frame, err := decodeFrame(raw)
		if err != nil {
			r.malformed++
			continue
		}
		r.decoded++
		frames = append(frames, frame)
	}
	return frames
}

// claim copies one frame out of the accumulation buffer, preferring
// arena storage when a heap is attached.
func (r *Reassembler) claim(n int) []byte {
	if r.hp != nil {
		if handle, err := r.hp.Alloc(n); err == nil {
			if raw, err := r.hp.Bytes(handle, n); err == nil {
				copy(raw, r.buf[:n])
				return raw
			}
		}
	}
	raw := make([]byte, n)
	copy(raw, r.buf[:n])
	return raw
}

func decodeFrame(raw []byte) (Frame, error) {
	std, n, err := dlt.DecodeStandardHeader(raw)
	if err != nil {
		return Frame{}, err
	}
	frame := Frame{Raw: raw, Header: std}
	if !std.UseExtended {
		frame.Payload = raw[n:std.Length]
		return frame, nil
	}

	ext, en, err := dlt.DecodeExtendedHeader(raw[n:])
	if err != nil {
		return Frame{}, err
	}
	frame.Extended = &ext
	frame.Payload = raw[n+en : std.Length]

	switch {
	case ext.Type == dlt.TypeControl:
		rec, err := service.Parse(raw)
		if err != nil {
			return Frame{}, err
		}
		frame.Record = &rec
	case ext.Verbose:
		args, _, err := verbose.DecodeArguments(frame.Payload, int(ext.ArgCount))
		if err != nil {
			return Frame{}, err
		}
		frame.Arguments = args
	}
	// Non-verbose, non-control payloads pass through uninterpreted.
	return frame, nil
}
