package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/healthcache/internal/types"
)

const metaLastSnapshot = "last_snapshot"

// GetSyncMeta retrieves a sync metadata value by key.
func (s *SQLiteStore) GetSyncMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM sync_meta WHERE key = ?
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sync meta key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", ioErr("get sync meta", err)
	}
	return value, nil
}

// SetSyncMeta sets a sync metadata value.
func (s *SQLiteStore) SetSyncMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_meta (key, value) VALUES (?, ?)
	`, key, value)
	if err != nil {
		return ioErr("set sync meta", err)
	}
	return nil
}

// LastSnapshot returns when GenerateSnapshot last succeeded, or nil.
func (s *SQLiteStore) LastSnapshot(ctx context.Context) (*time.Time, error) {
	v, err := s.GetSyncMeta(ctx, metaLastSnapshot)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

// RecordSyncRun appends run to the sync history.
func (s *SQLiteStore) RecordSyncRun(ctx context.Context, run types.SyncRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, mode, outcome, started_at, finished_at,
			written, deleted, skipped_self, skipped_unsupported, codec_errors,
			failed_kinds, token_before, token_after, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		string(run.Mode),
		string(run.Outcome),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Counts.Written,
		run.Counts.Deleted,
		run.Counts.SkippedSelf,
		run.Counts.SkippedUnsupported,
		run.Counts.CodecErrors,
		strings.Join(run.FailedKinds, ","),
		run.TokenBefore,
		run.TokenAfter,
		run.Error,
	)
	if err != nil {
		return ioErr("record sync run", err)
	}
	return nil
}

const syncRunColumns = `
	id, mode, outcome, started_at, finished_at,
	written, deleted, skipped_self, skipped_unsupported, codec_errors,
	failed_kinds, token_before, token_after, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncRun(sc rowScanner) (types.SyncRun, error) {
	var run types.SyncRun
	var mode, outcome, startedAt, finishedAt, failedKinds string
	err := sc.Scan(
		&run.ID, &mode, &outcome, &startedAt, &finishedAt,
		&run.Counts.Written,
		&run.Counts.Deleted,
		&run.Counts.SkippedSelf,
		&run.Counts.SkippedUnsupported,
		&run.Counts.CodecErrors,
		&failedKinds, &run.TokenBefore, &run.TokenAfter, &run.Error,
	)
	if err != nil {
		return run, err
	}
	run.Mode = types.SyncMode(mode)
	run.Outcome = types.SyncOutcome(outcome)
	if t, err := time.Parse(timeLayout, startedAt); err == nil {
		run.StartedAt = t
	}
	if t, err := time.Parse(timeLayout, finishedAt); err == nil {
		run.FinishedAt = t
	}
	if failedKinds != "" {
		run.FailedKinds = strings.Split(failedKinds, ",")
	}
	return run, nil
}

// ListSyncRuns returns up to limit runs, newest first.
func (s *SQLiteStore) ListSyncRuns(ctx context.Context, limit int) ([]types.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, ioErr("list sync runs", err)
	}
	defer rows.Close()

	var runs []types.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, ioErr("scan sync run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("iterate sync runs", err)
	}
	return runs, nil
}

// GetSyncRun returns the run with id, or ErrNotFound.
func (s *SQLiteStore) GetSyncRun(ctx context.Context, id string) (*types.SyncRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM sync_runs
		WHERE id = ?
	`, id)
	run, err := scanSyncRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, ioErr("get sync run", err)
	}
	return &run, nil
}
