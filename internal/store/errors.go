package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the record or metadata key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreIO wraps every failure of the underlying database.
	ErrStoreIO = errors.New("store I/O error")

	// ErrInvalidRow indicates a row without an id or kind.
	ErrInvalidRow = errors.New("invalid row")

	// ErrSnapshotUnavailable indicates no snapshot has been generated yet.
	ErrSnapshotUnavailable = errors.New("snapshot not available")
)

// ioErr wraps a database failure with ErrStoreIO while keeping the cause
// reachable through errors.Is.
func ioErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreIO, op, err)
}
