package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/embworks/dltwire/internal/config"
	"github.com/embworks/dltwire/internal/observability"
	"github.com/embworks/dltwire/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to receiver TOML config")
	flag.Parse()

	cfg, err := config.LoadReceiverConfig(*configPath)
	if err != nil {
		bootLogger := observability.InitLogger("dltd", "info")
		bootLogger.Fatal().Err(err).Msg("config")
	}
	logger := observability.InitLogger(cfg.Name, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rcv := server.NewReceiver(cfg, logger)
	if err := rcv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("receiver failed")
	}
	logger.Info().Msg("receiver stopped")
}
