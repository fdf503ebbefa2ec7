package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/healthcache/internal/observability"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/types"
	"github.com/hyperengineering/healthcache/internal/validation"
)

// backfill pulls every kind up to now. The change token is taken before the
// first read so that nothing written during the pull is lost; it is stored
// only after every kind has been attempted. A kind whose read fails is
// recorded and left out; a store failure aborts the run.
func (e *Engine) backfill(ctx context.Context) (*types.SyncRun, error) {
	run := e.startRun(types.SyncModeBackfill)
	until := run.StartedAt

	slog.Info("backfill started",
		"component", "syncer",
		"action", "backfill",
		"run_id", run.ID,
		"kinds", len(e.kinds),
	)

	tok, tokErr := e.source.GetChangeToken(ctx, e.kinds)
	if tokErr != nil {
		slog.Warn("could not obtain change token before backfill",
			"component", "syncer",
			"run_id", run.ID,
			"error", tokErr,
		)
	}
	if prev, ok, err := e.Cursor(ctx); err == nil && ok {
		run.TokenBefore = prev
	}

	var (
		mu       sync.Mutex
		failed   []record.Kind
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, kind := range e.kinds {
		g.Go(func() error {
			counts, err := e.backfillKind(gctx, kind, until)

			mu.Lock()
			defer mu.Unlock()
			run.Counts.Add(counts)
			if err == nil {
				return nil
			}
			if errors.Is(err, store.ErrStoreIO) || gctx.Err() != nil {
				return err
			}
			failed = append(failed, kind)
			if firstErr == nil {
				firstErr = err
			}
			observability.RecordKindFailure(string(kind))
			slog.Warn("backfill of kind failed",
				"component", "syncer",
				"run_id", run.ID,
				"kind", string(kind),
				"error", err,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return e.failRun(ctx, run, fmt.Errorf("backfill: %w", err))
	}

	run.FailedKinds = kindNames(e.orderKinds(failed))

	if len(failed) == len(e.kinds) {
		return e.failRun(ctx, run, fmt.Errorf("backfill: every kind failed: %w", firstErr))
	}

	if tokErr == nil {
		if err := e.store.SetSyncMeta(ctx, e.cursorKey, tok); err != nil {
			return e.failRun(ctx, run, fmt.Errorf("persist cursor: %w", err))
		}
		run.TokenAfter = tok
	}

	run.Outcome = types.OutcomeSucceeded
	if len(failed) > 0 {
		run.Outcome = types.OutcomePartial
		run.Error = firstErr.Error()
	}
	e.finishRun(ctx, run)
	return run, nil
}

// backfillKind reads one kind and writes it in source order in a single
// transaction. Rows that fail id validation or decoding are skipped.
func (e *Engine) backfillKind(ctx context.Context, kind record.Kind, until time.Time) (types.SyncCounts, error) {
	var counts types.SyncCounts

	rows, err := e.source.ReadBulk(ctx, kind, until)
	if err != nil {
		return counts, fmt.Errorf("read %s: %w", kind, err)
	}

	batch := make([]store.StoredRecord, 0, len(rows))
	for _, br := range rows {
		payload, err := e.encodeRow(kind, br.ID, br.Origin, br.Fields)
		if err != nil {
			counts.CodecErrors++
			observability.RecordCodecError(string(kind))
			slog.Warn("skipping source record",
				"component", "syncer",
				"action", "backfill",
				"kind", string(kind),
				"id", br.ID,
				"error", err,
			)
			continue
		}
		batch = append(batch, store.StoredRecord{ID: br.ID, Kind: kind, Payload: payload})
	}

	if len(batch) == 0 {
		return counts, nil
	}
	if err := e.store.PutBatch(ctx, batch); err != nil {
		return counts, err
	}
	counts.Written = int64(len(batch))
	observability.RecordWritten(string(kind), types.SyncModeBackfill, len(batch))
	return counts, nil
}

// encodeRow validates id, decodes fields into kind's shape and re-encodes it
// in the cache's canonical form.
func (e *Engine) encodeRow(kind record.Kind, id, origin string, fields []byte) ([]byte, error) {
	if err := validation.ValidateRecordID(id); err != nil {
		return nil, err
	}
	rec, err := e.codec.DecodeFields(kind, id, origin, fields)
	if err != nil {
		return nil, err
	}
	return e.codec.Encode(rec)
}

// orderKinds sorts kinds into registry order.
func (e *Engine) orderKinds(kinds []record.Kind) []record.Kind {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[record.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	out := make([]record.Kind, 0, len(kinds))
	for _, k := range e.kinds {
		if set[k] {
			out = append(out, k)
		}
	}
	return out
}

func kindNames(kinds []record.Kind) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
