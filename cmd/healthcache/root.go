package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/healthcache/internal/api"
	"github.com/hyperengineering/healthcache/internal/snapshot"
	"github.com/hyperengineering/healthcache/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "healthcache",
	Short: "healthcache - local cache and read API for health records",
	Long: "Runs the cache server: keeps a local copy of health records in sync with the\n" +
		"provider and serves normalized points, nutrition totals and browse categories.",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(queryCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Configuration and logger
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 3. Store, source and engine
	a, err := openApp(cfg)
	if err != nil {
		return err
	}

	// 4. Snapshot storage
	uploader, err := snapshot.NewUploader(cfg.Snapshot)
	if err != nil {
		a.Close()
		return fmt.Errorf("snapshot storage: %w", err)
	}

	// 5. HTTP router
	handler := api.NewHandler(a.query, a.engine, a.store, a.reg, api.Options{
		APIKey:   cfg.Auth.APIKey,
		Version:  Version,
		Uploader: uploader,
		Metrics:  cfg.Metrics.Enabled,
	})
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 6. Workers
	var wg sync.WaitGroup
	if cfg.Sync.Enabled {
		syncWorker := worker.NewSyncWorker(a.engine, worker.SyncWorkerConfig{
			Interval:     time.Duration(cfg.Sync.Interval),
			RetryInitial: time.Duration(cfg.Sync.RetryInitial),
			RetryMax:     time.Duration(cfg.Sync.RetryMax),
		})
		startWorker(ctx, &wg, "sync", syncWorker.Run)
	}
	if cfg.Snapshot.Interval > 0 {
		snapshotWorker := worker.NewSnapshotWorker(a.store, uploader, time.Duration(cfg.Snapshot.Interval))
		startWorker(ctx, &wg, "snapshot", snapshotWorker.Run)
	}

	// 7. Serve
	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 8. Graceful shutdown: server, then workers, then store
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := a.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
