package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/types"
)

// Syncer is the sync operation the worker drives.
type Syncer interface {
	Sync(ctx context.Context) (*types.SyncRun, error)
}

// SyncWorkerConfig holds the schedule of a SyncWorker.
type SyncWorkerConfig struct {
	Interval     time.Duration
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// SyncWorker runs a sync on start and then on every interval. While the
// source is unavailable an attempt is retried with capped exponential
// backoff, never for longer than one interval.
type SyncWorker struct {
	syncer Syncer
	cfg    SyncWorkerConfig
}

// NewSyncWorker creates a worker around s.
func NewSyncWorker(s Syncer, cfg SyncWorkerConfig) *SyncWorker {
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = time.Second
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = cfg.RetryInitial
	}
	return &SyncWorker{syncer: s, cfg: cfg}
}

// Run starts the worker loop. Respects context cancellation for graceful
// shutdown; a sync in progress is allowed to observe the cancellation itself.
func (w *SyncWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "sync",
		"interval", w.cfg.Interval.String(),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "sync",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SyncWorker) backoff() retry.Backoff {
	b := retry.NewExponential(w.cfg.RetryInitial)
	b = retry.WithCappedDuration(w.cfg.RetryMax, b)
	return retry.WithMaxDuration(w.cfg.Interval, b)
}

// runOnce performs one sync, retrying systemic source failures.
func (w *SyncWorker) runOnce(ctx context.Context) {
	attempt := 0
	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		attempt++
		_, err := w.syncer.Sync(ctx)
		if err == nil {
			return nil
		}
		if source.IsSystemic(err) && ctx.Err() == nil {
			slog.Warn("sync failed, source unavailable, retrying",
				"component", "worker",
				"worker", "sync",
				"attempt", attempt,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil || ctx.Err() != nil {
		return
	}
	slog.Error("sync failed",
		"component", "worker",
		"worker", "sync",
		"attempts", attempt,
		"error", err,
	)
}
