package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/embworks/dltwire/internal/dlt/heap"
	"github.com/embworks/dltwire/internal/dlt/stream"
	"github.com/embworks/dltwire/internal/observability"
)

const ingestBufSize = 4096

// ingest owns one transport connection: a private heap and reassembler,
// so Feed is never called concurrently (the engine is single-producer).
type ingest struct {
	conn   net.Conn
	hp     *heap.Heap
	asm    *stream.Reassembler
	hub    *Hub
	stats  *Stats
	logger zerolog.Logger
}

func newIngest(conn net.Conn, heapCapacity int, hub *Hub, stats *Stats, logger zerolog.Logger) *ingest {
	hp := heap.New(heapCapacity)
	return &ingest{
		conn:   conn,
		hp:     hp,
		asm:    stream.New(hp),
		hub:    hub,
		stats:  stats,
		logger: logger.With().Str("peer", conn.RemoteAddr().String()).Logger(),
	}
}

// run pumps transport chunks through the reassembler until the peer
// disconnects. Frames are published before the next read so bursts in a
// single chunk are all delivered in order.
func (in *ingest) run() {
	defer in.conn.Close()
	in.logger.Info().Msg("ingest connected")

	peer := in.conn.RemoteAddr().String()
	buf := make([]byte, ingestBufSize)
	for {
		n, err := in.conn.Read(buf)
		if n > 0 {
			start := time.Now()
			before := in.asm.Decoded()
			beforeBad := in.asm.Malformed()
			frames := in.asm.Feed(buf[:n])
			in.publish(frames)

			decoded := int(in.asm.Decoded() - before)
			malformed := int(in.asm.Malformed() - beforeBad)
			in.stats.record(n, decoded, malformed)
			observability.RecordFeed(peer, n, decoded, malformed, time.Since(start))
			observability.SetHeapUsed(in.hp.Used())
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				in.logger.Warn().Err(err).Msg("ingest read error")
			}
			in.logger.Info().
				Uint64("decoded", in.asm.Decoded()).
				Uint64("malformed", in.asm.Malformed()).
				Msg("ingest disconnected")
			return
		}
	}
}

// publish serializes frames and hands them to the hub, then releases
// the arena storage the emitted frames were borrowed from. The JSON
// copies survive the reset; the frames themselves do not leave here.
func (in *ingest) publish(frames []stream.Frame) {
	for _, f := range frames {
		payload, err := json.Marshal(NewFrameEvent(f))
		if err != nil {
			in.logger.Error().Err(err).Msg("frame event marshal failed")
			continue
		}
		in.hub.Broadcast(payload)
	}
	if len(frames) > 0 {
		in.hp.Reset()
	}
}
