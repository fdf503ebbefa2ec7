package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/healthcache/internal/observability"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/types"
	"github.com/hyperengineering/healthcache/internal/validation"
)

// maxPages guards against a source that reports more pages forever.
const maxPages = 10_000

// reconcile pages through the change stream from the stored cursor. The
// cursor is written once, after the last page has been applied; any failure
// before that leaves the old cursor in place and the same changes are
// replayed next time. Upserts and deletes are idempotent by id, so a replay
// converges to the same cache state.
func (e *Engine) reconcile(ctx context.Context) (*types.SyncRun, error) {
	tok, ok, err := e.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCursor
	}

	run := e.startRun(types.SyncModeReconcile)
	run.TokenBefore = tok

	for page := 0; ; page++ {
		if page >= maxPages {
			return e.failRun(ctx, run, fmt.Errorf("poll changes: %w: more than %d pages", source.ErrUnavailable, maxPages))
		}
		if err := ctx.Err(); err != nil {
			return e.failRun(ctx, run, err)
		}

		batch, err := e.source.PollChanges(ctx, tok)
		if err != nil {
			return e.failRun(ctx, run, fmt.Errorf("poll changes: %w", err))
		}

		for _, ch := range batch.Changes {
			counts, err := e.apply(ctx, ch)
			run.Counts.Add(counts)
			if err != nil {
				return e.failRun(ctx, run, fmt.Errorf("apply %s %s: %w", ch.Operation, ch.ID, err))
			}
		}

		if batch.NextToken == "" {
			return e.failRun(ctx, run, fmt.Errorf("poll changes: %w: empty next token", source.ErrUnavailable))
		}
		tok = batch.NextToken
		if !batch.HasMore {
			break
		}
	}

	if err := e.store.SetSyncMeta(ctx, e.cursorKey, tok); err != nil {
		return e.failRun(ctx, run, fmt.Errorf("persist cursor: %w", err))
	}
	run.TokenAfter = tok
	run.Outcome = types.OutcomeSucceeded
	e.finishRun(ctx, run)
	return run, nil
}

// apply writes one change to the store. Only store failures are returned;
// anything wrong with the change itself is counted and skipped.
func (e *Engine) apply(ctx context.Context, ch source.Change) (types.SyncCounts, error) {
	var counts types.SyncCounts

	switch ch.Operation {
	case source.OperationDelete:
		if !deleteIDValid(ch.ID) {
			counts.CodecErrors++
			slog.Warn("skipping delete with invalid id", "component", "syncer", "id", ch.ID)
			return counts, nil
		}
		if err := e.store.Delete(ctx, ch.ID); err != nil {
			return counts, err
		}
		counts.Deleted++
		observability.RecordDeleted()
		return counts, nil

	case source.OperationUpsert:
		if e.origin != "" && ch.Origin == e.origin {
			counts.SkippedSelf++
			observability.RecordChangeSkipped(observability.SkipSelfOrigin)
			return counts, nil
		}
		if !e.reg.Supports(ch.Kind) {
			counts.SkippedUnsupported++
			observability.RecordChangeSkipped(observability.SkipUnsupported)
			slog.Debug("skipping change for unsupported kind",
				"component", "syncer",
				"kind", string(ch.Kind),
				"id", ch.ID,
			)
			return counts, nil
		}

		payload, err := e.encodeRow(ch.Kind, ch.ID, ch.Origin, ch.Fields)
		if err != nil {
			counts.CodecErrors++
			observability.RecordCodecError(string(ch.Kind))
			slog.Warn("skipping change",
				"component", "syncer",
				"action", "reconcile",
				"kind", string(ch.Kind),
				"id", ch.ID,
				"error", err,
			)
			return counts, nil
		}
		if err := e.store.Put(ctx, store.StoredRecord{ID: ch.ID, Kind: ch.Kind, Payload: payload}); err != nil {
			return counts, err
		}
		counts.Written++
		observability.RecordWritten(string(ch.Kind), types.SyncModeReconcile, 1)
		return counts, nil

	default:
		counts.CodecErrors++
		slog.Warn("skipping change with unknown operation",
			"component", "syncer",
			"operation", string(ch.Operation),
			"id", ch.ID,
		)
		return counts, nil
	}
}

// deleteIDValid reports whether a delete change names a usable id.
func deleteIDValid(id string) bool {
	return validation.ValidateRecordID(id) == nil
}
