// Package codec converts records to and from their persisted JSON payload.
//
// A Codec is built once at startup from the registry and shared read-only by
// every component that stores or reads records.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/registry"
)

// ErrCodec is matched by every *Error.
var ErrCodec = errors.New("codec error")

// Error reports a payload that could not be encoded or does not match the
// schema of its kind.
type Error struct {
	Kind record.Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec: %s %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both ErrCodec and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrCodec, e.Err}
}

// Codec encodes and decodes records for the kinds of a registry.
type Codec struct {
	reg *registry.Registry
}

// New returns a codec bound to reg.
func New(reg *registry.Registry) *Codec {
	return &Codec{reg: reg}
}

// Registry returns the registry the codec resolves kinds against.
func (c *Codec) Registry() *registry.Registry {
	return c.reg
}

// Encode validates rec and returns its payload. Times are written as integer
// epoch seconds.
func (c *Codec) Encode(rec record.Record) ([]byte, error) {
	kind := rec.Kind()
	if _, err := c.reg.Resolve(kind); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, &Error{Kind: kind, Op: "encode", Err: err}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, &Error{Kind: kind, Op: "encode", Err: err}
	}
	return data, nil
}

// Decode parses a payload persisted under kind. Unknown fields, wrong field
// types, truncated input and trailing data are all rejected, as is a record
// that fails validation after decoding.
func (c *Codec) Decode(kind record.Kind, payload []byte) (record.Record, error) {
	rec, err := c.decode(kind, payload)
	if err != nil {
		return nil, &Error{Kind: kind, Op: "decode", Err: err}
	}
	return rec, nil
}

// DecodeFields parses the field object the source reports for a record and
// stamps the identity the source reported alongside it. The id given here
// wins over any id inside fields.
func (c *Codec) DecodeFields(kind record.Kind, id, origin string, fields []byte) (record.Record, error) {
	rec, err := c.decode(kind, fields)
	if err != nil {
		return nil, &Error{Kind: kind, Op: "decode fields", Err: err}
	}
	meta := rec.Meta()
	meta.ID = id
	if origin != "" {
		meta.Origin = origin
	}
	return rec, nil
}

func (c *Codec) decode(kind record.Kind, payload []byte) (record.Record, error) {
	entry, err := c.reg.Resolve(kind)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, errors.New("empty payload")
	}

	rec := entry.New()
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(rec); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("trailing data after payload")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
