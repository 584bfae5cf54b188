package stream

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/dlt/heap"
	"github.com/embworks/dltwire/internal/dlt/service"
	"github.com/embworks/dltwire/internal/dlt/verbose"
)

func buildLogFrame(t *testing.T, text string) []byte {
	t.Helper()
	hp := heap.New(0)
	payload, err := verbose.AppendArguments(nil, []verbose.Argument{verbose.String(text)})
	if err != nil {
		t.Fatalf("append arguments: %v", err)
	}
	frame, err := dlt.EncodeLogMessage(hp, dlt.LogConfig{
		ECUID:    dlt.MakeID("ECU1"),
		AppID:    dlt.MakeID("DA1"),
		CtxID:    dlt.MakeID("DC1"),
		Level:    dlt.LevelInfo,
		Verbose:  true,
		ArgCount: 1,
	}, payload)
	if err != nil {
		t.Fatalf("encode log message: %v", err)
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	return out
}

func buildControlFrame(t *testing.T) []byte {
	t.Helper()
	hp := heap.New(0)
	frame, err := service.EncodeSetLogLevelRequest(hp, service.Meta{
		ECUID: dlt.MakeID("ECU1"),
		AppID: dlt.MakeID("DA1"),
		CtxID: dlt.MakeID("DC1"),
	}, dlt.MakeID("LOG"), dlt.MakeID("TEST"), dlt.LevelInfo)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	return out
}

func TestSplitFrameAcrossFeeds(t *testing.T) {
	// 12-byte standard header, 10-byte extended header, 24-byte payload.
	frame := buildLogFrame(t, "stream reassembled")
	if len(frame) != 46 {
		t.Fatalf("fixture frame is %d bytes, want 46", len(frame))
	}

	r := New(nil)
	got := r.Feed(frame[:10])
	if len(got) != 0 {
		t.Fatalf("expected no frames after first chunk, got %d", len(got))
	}
	if r.Pending() != 10 {
		t.Fatalf("expected 10 pending bytes, got %d", r.Pending())
	}

	got = r.Feed(frame[10:])
	if len(got) != 1 {
		t.Fatalf("expected one frame after second chunk, got %d", len(got))
	}
	if r.Decoded() != 1 || r.Malformed() != 0 {
		t.Fatalf("counters wrong: decoded=%d malformed=%d", r.Decoded(), r.Malformed())
	}
	if !bytes.Equal(got[0].Raw, frame) {
		t.Fatalf("reassembled frame differs from original")
	}
}

func TestChunkingIsDeterministic(t *testing.T) {
	var streamBytes []byte
	streamBytes = append(streamBytes, buildControlFrame(t)...)
	streamBytes = append(streamBytes, buildLogFrame(t, "first")...)
	streamBytes = append(streamBytes, buildLogFrame(t, "second")...)

	whole := New(nil)
	want := whole.Feed(streamBytes)
	if len(want) != 3 {
		t.Fatalf("expected 3 frames from single feed, got %d", len(want))
	}

	// Byte-at-a-time delivery must yield the identical frame sequence.
	drip := New(nil)
	var got []Frame
	for _, b := range streamBytes {
		got = append(got, drip.Feed([]byte{b})...)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d frames from drip feed, got %d", len(want), len(got))
	}
	for i := range want {
		if !bytes.Equal(got[i].Raw, want[i].Raw) {
			t.Fatalf("frame %d differs between chunkings", i)
		}
	}
	if drip.Decoded() != whole.Decoded() || drip.Malformed() != whole.Malformed() {
		t.Fatalf("counters differ between chunkings")
	}
}

func TestMultipleFramesInOneChunk(t *testing.T) {
	a := buildLogFrame(t, "one")
	b := buildControlFrame(t)
	r := New(nil)

	got := r.Feed(append(append([]byte{}, a...), b...))
	if len(got) != 2 {
		t.Fatalf("expected both frames emitted in one feed, got %d", len(got))
	}
	if got[0].Arguments == nil || got[1].Record == nil {
		t.Fatalf("expected a verbose frame then a control record")
	}
	if got[1].Record.TargetAppID().String() != "LOG" {
		t.Fatalf("control record mismatch: %+v", got[1].Record)
	}
}

func TestOneByteResyncOnBadLength(t *testing.T) {
	// First two length bytes declare 2, below the 4-byte minimum.
	bad := []byte{0x00, 0x00, 0x00, 0x02}
	r := New(nil)

	r.Feed(bad[:4])
	if r.Malformed() != 1 {
		t.Fatalf("expected one malformed increment, got %d", r.Malformed())
	}
	// Exactly one byte discarded; the remaining three stay buffered.
	if r.Pending() != 3 {
		t.Fatalf("expected 3 pending bytes, got %d", r.Pending())
	}
}

func TestResyncRecoversFollowingFrame(t *testing.T) {
	frame := buildLogFrame(t, "survives corruption")
	// One stray byte ahead of a valid frame: the scan sees a length of
	// zero, discards exactly the stray byte, and the frame survives.
	corrupted := append([]byte{0xff}, frame...)

	r := New(nil)
	got := r.Feed(corrupted)
	if len(got) != 1 {
		t.Fatalf("expected the valid frame to survive, got %d frames", len(got))
	}
	if !bytes.Equal(got[0].Raw, frame) {
		t.Fatalf("recovered frame differs from original")
	}
	if r.Decoded() != 1 || r.Malformed() != 1 {
		t.Fatalf("counters wrong: decoded=%d malformed=%d", r.Decoded(), r.Malformed())
	}
}

func TestUndecodableFrameCountsMalformed(t *testing.T) {
	// Plausible length but the use-extended flag promises ten bytes
	// that are not there.
	junk := make([]byte, 8)
	junk[0] = 0x01
	binary.BigEndian.PutUint16(junk[2:4], 8)

	r := New(nil)
	got := r.Feed(junk)
	if len(got) != 0 {
		t.Fatalf("expected no frames, got %d", len(got))
	}
	if r.Malformed() != 1 || r.Decoded() != 0 {
		t.Fatalf("counters wrong: decoded=%d malformed=%d", r.Decoded(), r.Malformed())
	}
	if r.Pending() != 0 {
		t.Fatalf("undecodable frame must still be consumed, %d pending", r.Pending())
	}
}

func TestResetClearsStateAndCounters(t *testing.T) {
	r := New(nil)
	r.Feed([]byte{0x00, 0x00, 0x00, 0x01})
	r.Reset()
	if r.Pending() != 0 || r.Decoded() != 0 || r.Malformed() != 0 {
		t.Fatalf("reset left state: pending=%d decoded=%d malformed=%d",
			r.Pending(), r.Decoded(), r.Malformed())
	}
}

func TestHeapBackedFrames(t *testing.T) {
	frame := buildLogFrame(t, "arena")
	hp := heap.New(heap.DefaultCapacity)
	r := New(hp)

	got := r.Feed(frame)
	if len(got) != 1 {
		t.Fatalf("expected one frame, got %d", len(got))
	}
	if hp.Used() == 0 {
		t.Fatalf("expected emitted frame storage drawn from the heap")
	}
}

func TestNonVerbosePayloadPassesThrough(t *testing.T) {
	hp := heap.New(0)
	opaque := []byte{0x13, 0x37, 0x00, 0x42}
	frame, err := dlt.EncodeLogMessage(hp, dlt.LogConfig{
		ECUID: dlt.MakeID("ECU1"),
		AppID: dlt.MakeID("DA1"),
		CtxID: dlt.MakeID("DC1"),
		Level: dlt.LevelInfo,
	}, opaque)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	r := New(nil)
	got := r.Feed(frame)
	if len(got) != 1 {
		t.Fatalf("expected one frame, got %d", len(got))
	}
	if got[0].Arguments != nil || got[0].Record != nil {
		t.Fatalf("opaque payload must stay uninterpreted")
	}
	if !bytes.Equal(got[0].Payload, opaque) {
		t.Fatalf("payload mismatch: % x", got[0].Payload)
	}
}
