package types

import (
	"time"

	"github.com/goccy/go-json"
)

// SyncMode identifies what a sync run did.
type SyncMode string

const (
	SyncModeBackfill  SyncMode = "backfill"
	SyncModeReconcile SyncMode = "reconcile"
	// SyncModeCursor is a run that only established a change cursor over a
	// cache that already had rows.
	SyncModeCursor SyncMode = "cursor"
)

// SyncOutcome is the terminal state of a sync run.
type SyncOutcome string

const (
	OutcomeSucceeded SyncOutcome = "succeeded"
	// OutcomePartial is a backfill where at least one kind failed to pull.
	OutcomePartial SyncOutcome = "partial"
	OutcomeFailed  SyncOutcome = "failed"
)

// SyncCounts tallies what a run did to the cache.
type SyncCounts struct {
	Written            int64 `json:"written"`
	Deleted            int64 `json:"deleted"`
	SkippedSelf        int64 `json:"skipped_self"`
	SkippedUnsupported int64 `json:"skipped_unsupported"`
	CodecErrors        int64 `json:"codec_errors"`
}

// Add accumulates o into c.
func (c *SyncCounts) Add(o SyncCounts) {
	c.Written += o.Written
	c.Deleted += o.Deleted
	c.SkippedSelf += o.SkippedSelf
	c.SkippedUnsupported += o.SkippedUnsupported
	c.CodecErrors += o.CodecErrors
}

// SyncRun is one persisted entry of sync history.
type SyncRun struct {
	ID          string      `json:"id"`
	Mode        SyncMode    `json:"mode"`
	Outcome     SyncOutcome `json:"outcome"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Counts      SyncCounts  `json:"counts"`
	FailedKinds []string    `json:"failed_kinds"`
	TokenBefore string      `json:"token_before,omitempty"`
	TokenAfter  string      `json:"token_after,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// MarshalJSON ensures nil slices in SyncRun marshal as [] not null.
func (r SyncRun) MarshalJSON() ([]byte, error) {
	if r.FailedKinds == nil {
		r.FailedKinds = []string{}
	}
	type Alias SyncRun
	return json.Marshal(Alias(r))
}

// --- HTTP API payloads ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string     `json:"status"`
	Version     string     `json:"version"`
	RecordCount int64      `json:"record_count"`
	HasCursor   bool       `json:"has_cursor"`
	LastSync    *time.Time `json:"last_sync"`
}

// KindInfo describes one supported record kind.
type KindInfo struct {
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	Unit      string `json:"unit,omitempty"`
	Scalar    bool   `json:"scalar"`
	CachedRow int64  `json:"cached_rows"`
}

// KindsResponse lists every supported kind in registry order.
type KindsResponse struct {
	Kinds []KindInfo `json:"kinds"`
}

// PointResponse is a normalized point. Value and Timestamp are both null
// when no data is cached for the kind.
type PointResponse struct {
	Kind      string     `json:"kind"`
	Label     string     `json:"label"`
	Value     *string    `json:"value"`
	Unit      string     `json:"unit"`
	Timestamp *time.Time `json:"timestamp"`
}

// AggregateResponse is a nutrient summed over the trailing 24 hours.
type AggregateResponse struct {
	Nutrient  string    `json:"nutrient"`
	Label     string    `json:"label"`
	Quantity  float64   `json:"quantity"`
	Display   string    `json:"display"`
	Unit      string    `json:"unit"`
	WindowEnd time.Time `json:"window_end"`
}

// CardResponse is one tile of a category. Exactly one of Point or Aggregate
// is set.
type CardResponse struct {
	Point     *PointResponse     `json:"point,omitempty"`
	Aggregate *AggregateResponse `json:"aggregate,omitempty"`
}

// CategoryResponse is a browse category with every card resolved.
type CategoryResponse struct {
	Category string         `json:"category"`
	Title    string         `json:"title"`
	Cards    []CardResponse `json:"cards"`
}

// MarshalJSON ensures nil slices in CategoryResponse marshal as [] not null.
func (c CategoryResponse) MarshalJSON() ([]byte, error) {
	if c.Cards == nil {
		c.Cards = []CardResponse{}
	}
	type Alias CategoryResponse
	return json.Marshal(Alias(c))
}

// SyncStatusResponse reports the cache and cursor state.
type SyncStatusResponse struct {
	FirstSyncNeeded bool             `json:"first_sync_needed"`
	HasCursor       bool             `json:"has_cursor"`
	RecordCount     int64            `json:"record_count"`
	CountsByKind    map[string]int64 `json:"counts_by_kind"`
	InFlight        bool             `json:"in_flight"`
	LastRun         *SyncRun         `json:"last_run,omitempty"`
}

// MarshalJSON ensures nil map in SyncStatusResponse marshals as {} not null.
func (s SyncStatusResponse) MarshalJSON() ([]byte, error) {
	if s.CountsByKind == nil {
		s.CountsByKind = map[string]int64{}
	}
	type Alias SyncStatusResponse
	return json.Marshal(Alias(s))
}

// SyncRunsResponse lists recent sync runs, newest first.
type SyncRunsResponse struct {
	Runs []SyncRun `json:"runs"`
}

// MarshalJSON ensures nil slices in SyncRunsResponse marshal as [] not null.
func (r SyncRunsResponse) MarshalJSON() ([]byte, error) {
	if r.Runs == nil {
		r.Runs = []SyncRun{}
	}
	type Alias SyncRunsResponse
	return json.Marshal(Alias(r))
}

// CategorySummary names one browse category.
type CategorySummary struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Cards    int    `json:"cards"`
}

// CategoriesResponse lists the browse categories in display order.
type CategoriesResponse struct {
	Categories []CategorySummary `json:"categories"`
}

// SnapshotResponse points at the most recently uploaded cache snapshot.
type SnapshotResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
