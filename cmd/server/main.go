package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/santacasa-ti/plantao-board/internal/api"
	"github.com/santacasa-ti/plantao-board/internal/auth"
	"github.com/santacasa-ti/plantao-board/internal/config"
	"github.com/santacasa-ti/plantao-board/internal/service"
	"github.com/santacasa-ti/plantao-board/internal/sheets"
	"github.com/santacasa-ti/plantao-board/internal/store"
	"github.com/santacasa-ti/plantao-board/pkg/infra"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		slog.Error("Fatal error connecting to Postgres", "error", err)
		os.Exit(1)
	}
	defer postgres.Close()

	if err := postgres.EnsureSchema(ctx); err != nil {
		slog.Error("Fatal error applying schema", "error", err)
		os.Exit(1)
	}

	gate := auth.NewService(postgres, logger)
	if err := gate.EnsureAdminPassword(ctx, cfg.AdminPass); err != nil {
		slog.Error("Fatal error seeding administrator password", "error", err)
		os.Exit(1)
	}

	sheetsClient := sheets.NewClient(cfg, logger)
	syncer := service.NewSyncer(sheetsClient, postgres, logger)
	server := api.NewServer(postgres, postgres, gate, syncer, cfg.SessionKey, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	pollDone := make(chan struct{})
	go runSyncPoll(ctx, syncer, cfg.SyncInterval, pollDone)

	go func() {
		slog.Info("🏥 Shift-change board started", "addr", cfg.HTTPAddr, "pid", os.Getpid())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("👋 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}

	<-pollDone
	slog.Info("✅ Shutdown complete")
}

// runSyncPoll refreshes the board from the spreadsheet on a fixed interval.
// This is the outer-layer poll the viewers would otherwise trigger by hand;
// an interval of zero disables it. Consecutive failures back off so a dead
// spreadsheet does not get hammered every tick
func runSyncPoll(ctx context.Context, syncer *service.Syncer, interval time.Duration, done chan struct{}) {
	defer close(done)

	if interval <= 0 {
		slog.Info("Background sync poll disabled")
		return
	}

	backoff := infra.NewBackoff(interval, 10*time.Minute, 2.0)
	slog.Info("Background sync poll started", "interval", interval)

	for {
		wait := interval
		if result := syncer.Sync(ctx); !result.Success {
			wait = backoff.Next()
			slog.Warn("Background sync failed, backing off", "retry_in", wait)
		} else {
			backoff.Reset()
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			slog.Info("🛑 Stopping background sync poll")
			return
		}
	}
}
