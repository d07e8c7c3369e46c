// bookmerge-server ingests live order-book updates from two venues,
// maintains per-venue replicas, merges them into a cross-venue top-10
// snapshot, and broadcasts that snapshot over a streaming RPC.
//
// Architecture:
//
//	main.go                — entry point: loads config, wires connectors,
//	                         merger, and the RPC server, waits for
//	                         SIGINT/SIGTERM
//	internal/config        — YAML config + env var overrides
//	internal/venue         — per-venue REST/WS connectors (alpha, beta)
//	internal/book          — per-venue order book replica + applier task
//	internal/merger        — cross-venue merge + tie-break + spread
//	internal/broadcast     — latest-value cell + gRPC streaming service
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookmerge/internal/book"
	"bookmerge/internal/broadcast"
	"bookmerge/internal/config"
	"bookmerge/internal/merger"
	"bookmerge/internal/venue"
	"bookmerge/pkg/types"
)

const mergeLevels = 10

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("BOOKMERGE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	symbol := types.Symbol(strings.ToUpper(cfg.Symbol))
	if !symbol.Valid() {
		logger.Error("unsupported symbol", "symbol", cfg.Symbol)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alpha := venue.NewAlphaConnector(symbol, cfg.Alpha.RESTBaseURL, cfg.Alpha.WSURL, logger)
	beta := venue.NewBetaConnector(symbol, cfg.Beta.RESTBaseURL, cfg.Beta.WSURL, logger)

	alphaMeta, err := alpha.FetchMetadata(ctx)
	if err != nil {
		logger.Error("alpha metadata fetch failed", "error", err)
		os.Exit(1)
	}
	betaMeta, err := beta.FetchMetadata(ctx)
	if err != nil {
		logger.Error("beta metadata fetch failed", "error", err)
		os.Exit(1)
	}

	alphaBook := book.New(types.VenueAlpha, symbol, alphaMeta.PriceScale, alphaMeta.QtyScale)
	betaBook := book.New(types.VenueBeta, symbol, betaMeta.PriceScale, betaMeta.QtyScale)

	bufSize := cfg.Channels.BufferSize
	alphaUpdates := make(chan venue.Update, bufSize)
	betaUpdates := make(chan venue.Update, bufSize)
	alphaSnapshots := make(chan book.Snapshot, bufSize)
	betaSnapshots := make(chan book.Snapshot, bufSize)

	go func() {
		if err := alpha.Run(ctx, alphaUpdates); err != nil && ctx.Err() == nil {
			logger.Error("alpha connector exited", "error", err)
		}
	}()
	go func() {
		if err := beta.Run(ctx, betaUpdates); err != nil && ctx.Err() == nil {
			logger.Error("beta connector exited", "error", err)
		}
	}()
	go book.RunApplier(ctx, alphaBook, alphaUpdates, alphaSnapshots, alpha, logger.With("venue", "alpha"))
	go book.RunApplier(ctx, betaBook, betaUpdates, betaSnapshots, nil, logger.With("venue", "beta"))

	cell := broadcast.NewCell()
	svc := broadcast.NewService(cell, logger)
	go runMerger(ctx, symbol, alphaSnapshots, betaSnapshots, svc)

	server := broadcast.NewServer(cfg.ListenAddr(), svc)
	go func() {
		logger.Info("rpc server listening", "addr", cfg.ListenAddr())
		if err := server.ListenAndServe(); err != nil {
			logger.Error("rpc server failed", "error", err)
		}
	}()

	go reportConnectorStates(ctx, logger, alpha, beta)

	logger.Info("book merger started", "symbol", symbol, "listen_addr", cfg.ListenAddr())

	<-ctx.Done()
	logger.Info("shutting down")
	server.Stop()
}

// stateReporter is satisfied by both venue connectors, narrowed so
// reportConnectorStates only depends on the observability surface it needs.
type stateReporter interface {
	State() types.ConnState
}

// reportConnectorStates periodically logs each connector's lifecycle state
// (disconnected/connecting/syncing/live), giving an operator a coarse
// bootstrap-vs-steady-state signal alongside the per-frame logs each
// connector emits on every transition.
func reportConnectorStates(ctx context.Context, logger *slog.Logger, alpha, beta stateReporter) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("connector states", "alpha", alpha.State(), "beta", beta.State())
		}
	}
}

// runMerger feeds snapshots from both venues into a Merger and publishes
// every resulting Summary to svc, until ctx is canceled.
func runMerger(ctx context.Context, symbol types.Symbol, alphaSnapshots, betaSnapshots <-chan book.Snapshot, svc *broadcast.Service) {
	m := merger.New(symbol, mergeLevels)
	for {
		select {
		case snap, ok := <-alphaSnapshots:
			if !ok {
				return
			}
			if summary, ok := m.Update(snap); ok {
				svc.Publish(summary)
			}
		case snap, ok := <-betaSnapshots:
			if !ok {
				return
			}
			if summary, ok := m.Update(snap); ok {
				svc.Publish(summary)
			}
		case <-ctx.Done():
			return
		}
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
