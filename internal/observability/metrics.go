package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dltwire",
			Subsystem: "stream",
			Name:      "frames_decoded_total",
			Help:      "Frames successfully reassembled and decoded.",
		},
		[]string{"peer"},
	)
	framesMalformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dltwire",
			Subsystem: "stream",
			Name:      "frames_malformed_total",
			Help:      "Frames or framing bytes rejected, resync steps included.",
		},
		[]string{"peer"},
	)
	bytesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dltwire",
			Subsystem: "stream",
			Name:      "bytes_ingested_total",
			Help:      "Raw transport bytes fed into the reassembler.",
		},
		[]string{"peer"},
	)
	feedDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dltwire",
			Subsystem: "stream",
			Name:      "feed_duration_seconds",
			Help:      "Time spent per reassembler feed call.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dltwire",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket subscribers.",
		},
	)
	heapUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dltwire",
			Subsystem: "heap",
			Name:      "used_bytes",
			Help:      "Bytes accounted to live arena allocations.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesDecoded, framesMalformed, bytesIngested,
			feedDuration, wsClients, heapUsed)
	})
}

func RecordFeed(peer string, bytes, decoded, malformed int, duration time.Duration) {
	RegisterMetrics()
	bytesIngested.WithLabelValues(peer).Add(float64(bytes))
	framesDecoded.WithLabelValues(peer).Add(float64(decoded))
	framesMalformed.WithLabelValues(peer).Add(float64(malformed))
	feedDuration.Observe(duration.Seconds())
}

func SetWSClients(n int) {
	RegisterMetrics()
	wsClients.Set(float64(n))
}

func SetHeapUsed(bytes int) {
	RegisterMetrics()
	heapUsed.Set(float64(bytes))
}
