package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperengineering/healthcache/internal/record"
)

const snapshotFileName = "current.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the SQLite-backed record cache.
type SQLiteStore struct {
	db          *sql.DB
	snapshotDir string
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithSnapshotDir overrides where GenerateSnapshot writes.
func WithSnapshotDir(dir string) Option {
	return func(s *SQLiteStore) { s.snapshotDir = dir }
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	memory := isMemoryPath(dbPath)

	// Ensure parent directory exists
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath, memory))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		snapshotDir: filepath.Join(filepath.Dir(dbPath), "snapshots"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dsn applies the per-connection pragmas to every pooled connection, not
// just the one enablePragmas happens to run on.
func dsn(dbPath string, memory bool) string {
	if memory || strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func isMemoryPath(p string) bool {
	return p == ":memory:" || strings.HasPrefix(p, "file::memory:")
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// DB exposes the underlying handle for schema inspection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Count returns the number of cached records across all kinds.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, ioErr("count records", err)
	}
	return count, nil
}

// CountByKind returns the number of cached records per kind. Kinds without
// rows are absent from the map.
func (s *SQLiteStore) CountByKind(ctx context.Context) (map[record.Kind]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM records GROUP BY kind")
	if err != nil {
		return nil, ioErr("count by kind", err)
	}
	defer rows.Close()

	counts := make(map[record.Kind]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, ioErr("scan kind count", err)
		}
		counts[record.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("iterate kind counts", err)
	}
	return counts, nil
}

// Reset deletes every cached record and every cursor. Sync history is kept.
// This is the only operation that moves a cursor backwards.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ioErr("begin transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM records", "DELETE FROM sync_meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return ioErr("reset", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ioErr("commit reset", err)
	}
	return nil
}

// GenerateSnapshot writes a consistent copy of the database with VACUUM INTO
// and atomically replaces the previous snapshot.
func (s *SQLiteStore) GenerateSnapshot(ctx context.Context) error {
	if err := os.MkdirAll(s.snapshotDir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	final := filepath.Join(s.snapshotDir, snapshotFileName)
	tmp := final + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", tmp); err != nil {
		os.Remove(tmp)
		return ioErr("vacuum into snapshot", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}

	if err := s.SetSyncMeta(ctx, metaLastSnapshot, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return nil
}

// GetSnapshotPath returns the path of the latest snapshot.
func (s *SQLiteStore) GetSnapshotPath(ctx context.Context) (string, error) {
	p := filepath.Join(s.snapshotDir, snapshotFileName)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", ErrSnapshotUnavailable
		}
		return "", fmt.Errorf("stat snapshot: %w", err)
	}
	return p, nil
}
