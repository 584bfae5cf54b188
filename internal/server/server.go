// Package server is the transport-facing shell around the wire engine:
// a TCP ingest listener, a websocket fan-out hub, and a small HTTP
// surface for health, statistics, and metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/embworks/dltwire/internal/config"
	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/observability"
)

// Stats aggregates conversion totals across all ingest connections.
type Stats struct {
	Bytes     atomic.Uint64
	Decoded   atomic.Uint64
	Malformed atomic.Uint64
}

func (s *Stats) record(bytes, decoded, malformed int) {
	s.Bytes.Add(uint64(bytes))
	s.Decoded.Add(uint64(decoded))
	s.Malformed.Add(uint64(malformed))
}

// Receiver accepts raw transport bytes, runs them through the engine,
// and serves decoded frames plus statistics to consumers.
type Receiver struct {
	cfg     config.ReceiverConfig
	logger  zerolog.Logger
	hub     *Hub
	stats   Stats
	router  *gin.Engine
	started time.Time
}

func NewReceiver(cfg config.ReceiverConfig, logger zerolog.Logger) *Receiver {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	rcv := &Receiver{
		cfg:     cfg,
		logger:  logger,
		hub:     NewHub(logger),
		started: time.Now(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	rcv.registerRoutes(r)
	rcv.router = r
	return rcv
}

func (rcv *Receiver) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": rcv.cfg.Name,
			"engine":  dlt.Version(),
			"uptime":  time.Since(rcv.started).String(),
		})
	})
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"bytes_ingested":   rcv.stats.Bytes.Load(),
			"frames_decoded":   rcv.stats.Decoded.Load(),
			"frames_malformed": rcv.stats.Malformed.Load(),
			"ws_clients":       rcv.hub.Clients(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", func(c *gin.Context) {
		rcv.hub.Attach(c.Writer, c.Request)
	})
}

// Run serves the ingest listener and the HTTP surface until ctx is
// cancelled or either listener fails.
func (rcv *Receiver) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", rcv.cfg.ListenAddr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{Addr: rcv.cfg.HTTPAddr, Handler: rcv.router}

	errc := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		rcv.logger.Info().Str("addr", rcv.cfg.ListenAddr).Msg("ingest listener up")
		errc <- rcv.acceptLoop(ln)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		rcv.logger.Info().Str("addr", rcv.cfg.HTTPAddr).Msg("http listener up")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errc:
	}

	ln.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)
	wg.Wait()
	return err
}

func (rcv *Receiver) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		in := newIngest(conn, rcv.cfg.HeapCapacity, rcv.hub, &rcv.stats, rcv.logger)
		go in.run()
	}
}
