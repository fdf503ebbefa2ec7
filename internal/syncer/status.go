package syncer

import (
	"context"

	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/types"
)

// Status is a point-in-time view of the engine and the cache.
type Status struct {
	FirstSyncNeeded bool
	HasCursor       bool
	RecordCount     int64
	CountsByKind    map[record.Kind]int64
	InFlight        bool
	LastRun         *types.SyncRun
}

// Status reads the engine's state. It does not wait for a running sync.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	counts, err := e.store.CountByKind(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	_, hasCursor, err := e.Cursor(ctx)
	if err != nil {
		return nil, err
	}

	runs, err := e.store.ListSyncRuns(ctx, 1)
	if err != nil {
		return nil, err
	}

	st := &Status{
		FirstSyncNeeded: total == 0,
		HasCursor:       hasCursor,
		RecordCount:     total,
		CountsByKind:    counts,
		InFlight:        e.InFlight(),
	}
	if len(runs) > 0 {
		st.LastRun = &runs[0]
	}
	return st, nil
}

// Response converts s to its API payload.
func (s *Status) Response() types.SyncStatusResponse {
	byKind := make(map[string]int64, len(s.CountsByKind))
	for k, n := range s.CountsByKind {
		byKind[string(k)] = n
	}
	return types.SyncStatusResponse{
		FirstSyncNeeded: s.FirstSyncNeeded,
		HasCursor:       s.HasCursor,
		RecordCount:     s.RecordCount,
		CountsByKind:    byKind,
		InFlight:        s.InFlight,
		LastRun:         s.LastRun,
	}
}
