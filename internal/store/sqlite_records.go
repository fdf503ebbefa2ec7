package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
)

// execContext is satisfied by both *sql.DB and *sql.Tx.
type execContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertSQL keeps seq (arrival order) for an existing id and only touches
// updated_at when the row actually changes, so repeating a put is invisible.
const upsertSQL = `
	INSERT INTO records (id, kind, payload, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		payload = excluded.payload,
		updated_at = excluded.updated_at
	WHERE records.kind IS NOT excluded.kind
	   OR records.payload IS NOT excluded.payload
`

func validateRow(rec StoredRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRow)
	}
	if rec.Kind == "" {
		return fmt.Errorf("%w: kind is required for %s", ErrInvalidRow, rec.ID)
	}
	return nil
}

func upsertRecord(ctx context.Context, execer execContext, rec StoredRecord, now string) error {
	_, err := execer.ExecContext(ctx, upsertSQL, rec.ID, string(rec.Kind), string(rec.Payload), now)
	if err != nil {
		return ioErr(fmt.Sprintf("upsert record %s", rec.ID), err)
	}
	return nil
}

// Put inserts rec or replaces the row with the same id.
func (s *SQLiteStore) Put(ctx context.Context, rec StoredRecord) error {
	if err := validateRow(rec); err != nil {
		return err
	}
	return upsertRecord(ctx, s.db, rec, time.Now().UTC().Format(timeLayout))
}

// PutBatch upserts recs in one transaction, in slice order. Either every row
// is committed or none is.
func (s *SQLiteStore) PutBatch(ctx context.Context, recs []StoredRecord) error {
	if len(recs) == 0 {
		return nil
	}
	for _, rec := range recs {
		if err := validateRow(rec); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ioErr("begin transaction", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	for _, rec := range recs {
		if err := upsertRecord(ctx, tx, rec, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return ioErr("commit batch", err)
	}
	return nil
}

// Get returns the row with id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, payload, updated_at FROM records WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, ioErr("get record", err)
	}
	return rec, nil
}

// Delete removes the row with id. Deleting an absent id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
		return ioErr("delete record", err)
	}
	return nil
}

// QueryByKind returns every row of kind in arrival order. A replaced row
// keeps the position of its first arrival.
func (s *SQLiteStore) QueryByKind(ctx context.Context, kind record.Kind) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, payload, updated_at FROM records
		WHERE kind = ?
		ORDER BY seq ASC
	`, string(kind))
	if err != nil {
		return nil, ioErr("query by kind", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, ioErr("scan record", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("iterate records", err)
	}
	return out, nil
}

func scanRecord(scanner interface{ Scan(...any) error }) (*StoredRecord, error) {
	var rec StoredRecord
	var kind, payload, updatedAt string
	if err := scanner.Scan(&rec.ID, &kind, &payload, &updatedAt); err != nil {
		return nil, err
	}
	rec.Kind = record.Kind(kind)
	rec.Payload = []byte(payload)
	if t, err := time.Parse(timeLayout, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}
