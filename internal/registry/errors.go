package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedKind indicates the kind is not in the registry.
	ErrUnsupportedKind = errors.New("unsupported record kind")

	// ErrNoScalarProjection indicates the kind is known but has no single
	// value to display. It matches ErrUnsupportedKind under errors.Is.
	ErrNoScalarProjection = fmt.Errorf("no scalar projection: %w", ErrUnsupportedKind)

	// ErrShapeMismatch indicates a record was handed to a rule bound to a
	// different shape.
	ErrShapeMismatch = errors.New("record shape does not match kind")

	// ErrUnknownCategory indicates the browse category does not exist.
	ErrUnknownCategory = errors.New("unknown category")
)
