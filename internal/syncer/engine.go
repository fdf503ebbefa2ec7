// Package syncer moves records from the external source into the cache.
//
// A cold cache is filled by Backfill, which pulls the full history of every
// registered kind. Once a change cursor exists, Reconcile replays the
// provider's change stream from that cursor and advances it only after the
// whole stream has been applied, so an interrupted run is replayed rather
// than skipped.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/observability"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/types"
)

// ErrNoCursor is returned by Reconcile when no change cursor has been
// persisted for the engine's kind set.
var ErrNoCursor = errors.New("no change cursor")

// DefaultBackfillConcurrency bounds how many kinds are pulled at once.
const DefaultBackfillConcurrency = 4

// Config holds engine settings.
type Config struct {
	// Origin is this application's own package id. Upserts carrying it are
	// not re-imported. Empty disables the filter.
	Origin string

	// BackfillConcurrency bounds parallel per-kind pulls. Zero means
	// DefaultBackfillConcurrency.
	BackfillConcurrency int

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Engine runs sync operations against one store and one source. All
// operations that move the cursor are serialized; concurrent triggers of the
// same operation share one run.
type Engine struct {
	store  store.Store
	source source.Source
	codec  *codec.Codec
	reg    *registry.Registry

	origin      string
	concurrency int
	now         func() time.Time

	kinds     []record.Kind
	cursorKey string

	group    singleflight.Group
	sem      chan struct{}
	inFlight atomic.Bool
}

// New creates an engine over every kind registered with c's registry.
func New(st store.Store, src source.Source, c *codec.Codec, cfg Config) *Engine {
	concurrency := cfg.BackfillConcurrency
	if concurrency <= 0 {
		concurrency = DefaultBackfillConcurrency
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	reg := c.Registry()
	kinds := reg.AllKinds()
	return &Engine{
		store:       st,
		source:      src,
		codec:       c,
		reg:         reg,
		origin:      cfg.Origin,
		concurrency: concurrency,
		now:         now,
		kinds:       kinds,
		cursorKey:   CursorKey(kinds),
		sem:         make(chan struct{}, 1),
	}
}

// CursorKey returns the sync_meta key under which the change cursor for a
// kind set is stored. The key does not depend on the order of kinds.
func CursorKey(kinds []record.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	sort.Strings(names)
	sum := sha256.Sum256([]byte(strings.Join(names, ",")))
	return "cursor:" + hex.EncodeToString(sum[:8])
}

// Kinds returns the kind set the engine syncs, in backfill order.
func (e *Engine) Kinds() []record.Kind {
	out := make([]record.Kind, len(e.kinds))
	copy(out, e.kinds)
	return out
}

// NeedsFirstSync reports whether the cache has never been filled. It cannot
// tell an empty history from a backfill in which every kind failed.
func (e *Engine) NeedsFirstSync(ctx context.Context) (bool, error) {
	n, err := e.store.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Cursor returns the persisted change cursor, if any.
func (e *Engine) Cursor(ctx context.Context) (string, bool, error) {
	tok, err := e.store.GetSyncMeta(ctx, e.cursorKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tok, tok != "", nil
}

// InFlight reports whether a run currently holds the cursor.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// Backfill pulls the full history of every kind and then stores a fresh
// change cursor.
func (e *Engine) Backfill(ctx context.Context) (*types.SyncRun, error) {
	return e.exclusive(ctx, "backfill", e.backfill)
}

// Reconcile applies the change stream from the persisted cursor. A trigger
// that arrives while a reconciliation is running waits for and shares that
// run's result.
func (e *Engine) Reconcile(ctx context.Context) (*types.SyncRun, error) {
	return e.exclusive(ctx, "reconcile", e.reconcile)
}

// Sync picks the right operation for the cache's state: backfill when the
// cache is empty, establish a cursor when rows exist without one, reconcile
// otherwise. An expired cursor falls back to a full backfill.
func (e *Engine) Sync(ctx context.Context) (*types.SyncRun, error) {
	return e.exclusive(ctx, "sync", e.sync)
}

func (e *Engine) sync(ctx context.Context) (*types.SyncRun, error) {
	empty, err := e.NeedsFirstSync(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return e.backfill(ctx)
	}

	_, ok, err := e.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return e.establishCursor(ctx)
	}

	run, err := e.reconcile(ctx)
	if errors.Is(err, source.ErrTokenExpired) {
		slog.Warn("change cursor expired, running full backfill",
			"component", "syncer",
			"cursor_key", e.cursorKey,
		)
		return e.backfill(ctx)
	}
	return run, err
}

// exclusive coalesces concurrent calls for key and serializes every
// cursor-moving operation behind one slot.
func (e *Engine) exclusive(ctx context.Context, key string, fn func(context.Context) (*types.SyncRun, error)) (*types.SyncRun, error) {
	v, err, shared := e.group.Do(key, func() (any, error) {
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		e.inFlight.Store(true)
		observability.SetInFlight(true)
		defer func() {
			e.inFlight.Store(false)
			observability.SetInFlight(false)
			<-e.sem
		}()
		return fn(ctx)
	})
	if shared {
		slog.Debug("sync trigger coalesced", "component", "syncer", "action", key)
	}
	run, _ := v.(*types.SyncRun)
	return run, err
}

// establishCursor stores a fresh cursor over a cache that already has rows.
// Changes made between the old cursor and now are not replayed.
func (e *Engine) establishCursor(ctx context.Context) (*types.SyncRun, error) {
	run := e.startRun(types.SyncModeCursor)
	slog.Warn("cache has rows but no change cursor, starting from current position",
		"component", "syncer",
		"action", "establish_cursor",
		"run_id", run.ID,
	)

	tok, err := e.source.GetChangeToken(ctx, e.kinds)
	if err != nil {
		return e.failRun(ctx, run, fmt.Errorf("get change token: %w", err))
	}
	if err := e.store.SetSyncMeta(ctx, e.cursorKey, tok); err != nil {
		return e.failRun(ctx, run, fmt.Errorf("persist cursor: %w", err))
	}
	run.TokenAfter = tok
	run.Outcome = types.OutcomeSucceeded
	e.finishRun(ctx, run)
	return run, nil
}

func (e *Engine) startRun(mode types.SyncMode) *types.SyncRun {
	now := e.now().UTC()
	return &types.SyncRun{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Mode:      mode,
		StartedAt: now,
	}
}

func (e *Engine) failRun(ctx context.Context, run *types.SyncRun, err error) (*types.SyncRun, error) {
	run.Outcome = types.OutcomeFailed
	run.Error = err.Error()
	slog.Error("sync run failed",
		"component", "syncer",
		"action", string(run.Mode),
		"run_id", run.ID,
		"error", err,
	)
	e.finishRun(ctx, run)
	return run, err
}

// finishRun stamps, observes and persists run. History is written even when
// ctx has been cancelled.
func (e *Engine) finishRun(ctx context.Context, run *types.SyncRun) {
	run.FinishedAt = e.now().UTC()
	observability.RecordRun(*run)

	if err := e.store.RecordSyncRun(context.WithoutCancel(ctx), *run); err != nil {
		slog.Warn("failed to record sync run",
			"component", "syncer",
			"run_id", run.ID,
			"error", err,
		)
	}

	slog.Info("sync run finished",
		"component", "syncer",
		"action", string(run.Mode),
		"run_id", run.ID,
		"outcome", string(run.Outcome),
		"written", run.Counts.Written,
		"deleted", run.Counts.Deleted,
		"skipped_self", run.Counts.SkippedSelf,
		"skipped_unsupported", run.Counts.SkippedUnsupported,
		"codec_errors", run.Counts.CodecErrors,
		"duration_ms", run.Duration().Milliseconds(),
	)
}
