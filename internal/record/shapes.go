package record

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is wrapped by every Validate failure.
var ErrInvalidRecord = errors.New("invalid record")

// Metadata is the provider-assigned identity of a record.
type Metadata struct {
	ID           string    `json:"id"`
	Origin       string    `json:"origin,omitempty"`
	LastModified Timestamp `json:"last_modified"`
}

// Meta returns m itself so embedding shapes satisfy Record.
func (m *Metadata) Meta() *Metadata {
	return m
}

// Instant is the base of records measured at a single point in time.
type Instant struct {
	Metadata
	Time Timestamp `json:"time"`
}

// Validate requires the measurement time.
func (r *Instant) Validate() error {
	if r.Time.IsZero() {
		return missing("time")
	}
	return nil
}

// Interval is the base of records covering a time range.
type Interval struct {
	Metadata
	StartTime Timestamp `json:"start_time"`
	EndTime   Timestamp `json:"end_time"`
}

// Validate requires both bounds with end not before start.
func (r *Interval) Validate() error {
	if r.StartTime.IsZero() {
		return missing("start_time")
	}
	if r.EndTime.IsZero() {
		return missing("end_time")
	}
	if r.EndTime.Before(r.StartTime.Time) {
		return fmt.Errorf("%w: end_time before start_time", ErrInvalidRecord)
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidRecord, field)
}

func emptySeries() error {
	return fmt.Errorf("%w: samples must not be empty", ErrInvalidRecord)
}
