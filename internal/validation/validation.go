// Package validation checks untrusted input: record ids arriving from the
// source and parameters arriving over HTTP.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// MaxRecordIDLength is the longest record id the cache accepts, in runes.
const MaxRecordIDLength = 256

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Err joins the accumulated errors, or returns nil when there are none.
func (c *Collector) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	errs := make([]error, len(c.errors))
	for i := range c.errors {
		errs[i] = &c.errors[i]
	}
	return errors.Join(errs...)
}

// ValidateRecordID checks an id received from the source before it is used
// as a cache key.
func ValidateRecordID(id string) error {
	var c Collector
	c.Add(ValidateRequired("id", id))
	c.Add(ValidateUTF8("id", id))
	c.Add(ValidateNoNullBytes("id", id))
	c.Add(ValidateMaxLength("id", id, MaxRecordIDLength))
	return c.Err()
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateULID returns an error unless value parses as a ULID, as sync run
// ids do.
func ValidateULID(field, value string) *ValidationError {
	_, err := ulid.ParseStrict(value)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ulid.ErrDataSize):
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	case errors.Is(err, ulid.ErrOverflow):
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (timestamp overflow)",
		}
	default:
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (invalid character)",
		}
	}
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %.1f and %.1f", min, max),
		}
	}
	return nil
}
