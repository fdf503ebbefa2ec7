// Package registry is the closed table of supported record kinds. Each entry
// binds a kind tag to the constructor the codec decodes into and the rule the
// normalizer projects with.
package registry

import (
	"fmt"
	"sync"

	"github.com/hyperengineering/healthcache/internal/normalize"
	"github.com/hyperengineering/healthcache/internal/record"
)

// Projector maps a decoded record to its scalar point.
type Projector func(record.Record) (normalize.Point, error)

// Entry describes one supported kind.
type Entry struct {
	Kind  record.Kind
	Label string

	// Unit is the display unit of the scalar projection. Empty when Project
	// is nil.
	Unit string

	// New returns an empty record for the codec to decode into.
	New func() record.Record

	// Project is nil for kinds whose natural form is an enum, a session or
	// an aggregate rather than a single value.
	Project Projector
}

// Scalar reports whether the entry has a scalar projection.
func (e Entry) Scalar() bool {
	return e.Project != nil
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	entries    map[record.Kind]Entry
	order      []record.Kind
	categories []categoryDef
	catIndex   map[Category]int
}

// New builds a registry from entries in the given order. It panics on a
// duplicate kind or an entry without a constructor, both of which are
// programming errors.
func New(entries ...Entry) *Registry {
	r := &Registry{
		entries:  make(map[record.Kind]Entry, len(entries)),
		order:    make([]record.Kind, 0, len(entries)),
		catIndex: make(map[Category]int),
	}
	for _, e := range entries {
		if _, exists := r.entries[e.Kind]; exists {
			panic("record kind already registered: " + string(e.Kind))
		}
		if e.New == nil {
			panic("record kind without constructor: " + string(e.Kind))
		}
		r.entries[e.Kind] = e
		r.order = append(r.order, e.Kind)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := New(standardEntries()...)
	r.categories = standardCategories()
	for i, c := range r.categories {
		r.catIndex[c.name] = i
	}
	return r
})

// Default returns the standard registry with every supported kind and the
// browse categories.
func Default() *Registry {
	return defaultRegistry()
}

// Resolve returns the entry for kind.
func (r *Registry) Resolve(kind record.Kind) (Entry, error) {
	e, ok := r.entries[kind]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	return e, nil
}

// AllKinds returns every kind in registry order. The order is fixed and is
// the order backfill walks the kinds in.
func (r *Registry) AllKinds() []record.Kind {
	out := make([]record.Kind, len(r.order))
	copy(out, r.order)
	return out
}

// Supports reports whether kind is registered.
func (r *Registry) Supports(kind record.Kind) bool {
	_, ok := r.entries[kind]
	return ok
}

// HasScalarProjection reports whether kind is registered with a scalar rule.
func (r *Registry) HasScalarProjection(kind record.Kind) bool {
	e, ok := r.entries[kind]
	return ok && e.Scalar()
}

// ScalarKinds returns the kinds with a scalar projection, in registry order.
func (r *Registry) ScalarKinds() []record.Kind {
	var out []record.Kind
	for _, k := range r.order {
		if r.entries[k].Scalar() {
			out = append(out, k)
		}
	}
	return out
}

// Project applies the scalar rule registered for rec's kind.
func (r *Registry) Project(rec record.Record) (normalize.Point, error) {
	e, err := r.Resolve(rec.Kind())
	if err != nil {
		return normalize.Point{}, err
	}
	if !e.Scalar() {
		return normalize.Point{}, fmt.Errorf("%w: %s", ErrNoScalarProjection, e.Kind)
	}
	return e.Project(rec)
}

// bind adapts a typed rule to a Projector.
func bind[T record.Record](rule func(T) normalize.Point) Projector {
	return func(rec record.Record) (normalize.Point, error) {
		v, ok := rec.(T)
		if !ok {
			return normalize.Point{}, fmt.Errorf("%w: %s given %T", ErrShapeMismatch, rec.Kind(), rec)
		}
		return rule(v), nil
	}
}

// newOf returns a constructor for *T.
func newOf[T any, P interface {
	*T
	record.Record
}]() func() record.Record {
	return func() record.Record { return P(new(T)) }
}
