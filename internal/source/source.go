// Package source is the boundary to the external health data provider.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
)

var (
	// ErrPermissionDenied indicates the provider refused access to a kind.
	ErrPermissionDenied = errors.New("source permission denied")

	// ErrUnavailable indicates the provider could not be reached or failed
	// transiently.
	ErrUnavailable = errors.New("source unavailable")

	// ErrTokenExpired indicates the provider no longer accepts the change
	// token; changes since then cannot be replayed.
	ErrTokenExpired = errors.New("change token expired")
)

// Operation constants
type Operation string

const (
	OperationUpsert Operation = "upsert"
	OperationDelete Operation = "delete"
)

// BulkRecord is one record returned by ReadBulk. Fields is the record's JSON
// field object in the codec schema of its kind.
type BulkRecord struct {
	ID     string          `json:"id"`
	Origin string          `json:"origin,omitempty"`
	Fields json.RawMessage `json:"fields"`
}

// Change is one entry of the provider's change stream. Kind and Fields are
// empty for deletions.
type Change struct {
	Operation Operation       `json:"operation"`
	Kind      record.Kind     `json:"kind,omitempty"`
	ID        string          `json:"id"`
	Origin    string          `json:"origin,omitempty"`
	Fields    json.RawMessage `json:"fields,omitempty"`
}

// ChangeBatch is one page of the change stream.
type ChangeBatch struct {
	Changes   []Change `json:"changes"`
	NextToken string   `json:"next_token"`
	HasMore   bool     `json:"has_more"`
}

// Source reads from the external provider.
type Source interface {
	// ReadBulk returns every record of kind whose end time is at or before
	// until, in provider order.
	ReadBulk(ctx context.Context, kind record.Kind, until time.Time) ([]BulkRecord, error)

	// GetChangeToken returns a token marking the current position of the
	// change stream for kinds.
	GetChangeToken(ctx context.Context, kinds []record.Kind) (string, error)

	// PollChanges returns the changes after token.
	PollChanges(ctx context.Context, token string) (*ChangeBatch, error)
}

// IsSystemic reports whether err means the source as a whole is failing, as
// opposed to a single kind being refused.
func IsSystemic(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
