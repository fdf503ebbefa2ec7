// Package store persists encoded records in a type-erased cache keyed by
// record id, with a secondary index by kind.
package store

import (
	"context"
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/types"
)

// StoredRecord is one cached row. Payload is the codec output for Kind.
type StoredRecord struct {
	ID        string
	Kind      record.Kind
	Payload   []byte
	UpdatedAt time.Time
}

// Store defines the interface contract for cache storage operations. Every
// method is safe for concurrent use; each row write is atomic.
type Store interface {
	Put(ctx context.Context, rec StoredRecord) error
	PutBatch(ctx context.Context, recs []StoredRecord) error
	Get(ctx context.Context, id string) (*StoredRecord, error)
	Delete(ctx context.Context, id string) error
	QueryByKind(ctx context.Context, kind record.Kind) ([]StoredRecord, error)
	Count(ctx context.Context) (int64, error)
	CountByKind(ctx context.Context) (map[record.Kind]int64, error)
	GetSyncMeta(ctx context.Context, key string) (string, error)
	SetSyncMeta(ctx context.Context, key, value string) error
	RecordSyncRun(ctx context.Context, run types.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]types.SyncRun, error)
	GetSyncRun(ctx context.Context, id string) (*types.SyncRun, error)
	GenerateSnapshot(ctx context.Context) error
	GetSnapshotPath(ctx context.Context) (string, error)
	Reset(ctx context.Context) error
	Close() error
}
