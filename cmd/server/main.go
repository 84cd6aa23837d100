package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantsweep/sweepd/internal/chain"
	"github.com/quantsweep/sweepd/internal/config"
	"github.com/quantsweep/sweepd/internal/quant"
	"github.com/quantsweep/sweepd/internal/server"
	"github.com/quantsweep/sweepd/internal/store"
	"github.com/quantsweep/sweepd/internal/ws"
)

const version = "0.3.0"

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("SWEEPD_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Server.Port),
		zap.Strings("symbols", cfg.Symbols),
		zap.Duration("cacheTTL", cfg.Server.CacheTTL()),
		zap.Duration("streamInterval", cfg.Server.StreamIntervalDuration()),
	)

	// Provider client and fetcher
	client := chain.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		cfg.Mapping,
		cfg.Provider.RatePerSecond,
		cfg.Provider.Timeout(),
		cfg.Provider.RetryDelay(),
		cfg.Provider.RetryCount,
		logger,
	)
	fetcher := chain.NewFetcher(client, quant.ExpirySets, cfg.Provider.Workers, logger)

	cache := chain.NewSnapshotCache(cfg.Server.CacheTTL())

	st, err := store.New(cfg.Store.Directory, logger)
	if err != nil {
		logger.Error("failed to create store", zap.Error(err))
		return 1
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub and streamer
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	srv := server.NewServer(fetcher, cache, st, hub, cfg, version, logger)

	streamer, err := ws.NewStreamer(hub, srv, cfg.Server.StreamIntervalDuration(), logger)
	if err != nil {
		logger.Error("failed to create streamer", zap.Error(err))
		return 1
	}
	go streamer.Run(ctx)

	router := server.NewRouter(srv, logger)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Cancel context to stop WebSocket components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
