// Package query is the read side of the cache: normalized points, nutrition
// aggregates and browse categories, computed from cached rows on demand.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/normalize"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/types"
)

// ErrUnknownNutrient indicates the nutrient name is not in the nutrient table.
var ErrUnknownNutrient = errors.New("unknown nutrient")

// Service answers read queries. It holds no state of its own and is safe for
// concurrent use.
type Service struct {
	store store.Store
	codec *codec.Codec
	reg   *registry.Registry
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for the nutrition window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a read service over st.
func NewService(st store.Store, c *codec.Codec, opts ...Option) *Service {
	s := &Service{
		store: st,
		codec: c,
		reg:   c.Registry(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsFirstSyncNeeded reports whether the cache is empty.
func (s *Service) IsFirstSyncNeeded(ctx context.Context) (bool, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// LatestPoint projects the most recently arrived row of kind. A row that no
// longer decodes is returned as a *codec.Error, never passed over. An empty
// kind yields the no-data point.
func (s *Service) LatestPoint(ctx context.Context, kind record.Kind) (normalize.Point, error) {
	entry, err := s.reg.Resolve(kind)
	if err != nil {
		return normalize.Point{}, err
	}
	if !entry.Scalar() {
		return normalize.Point{}, fmt.Errorf("%w: %s", registry.ErrNoScalarProjection, kind)
	}

	rows, err := s.store.QueryByKind(ctx, kind)
	if err != nil {
		return normalize.Point{}, err
	}
	if len(rows) == 0 {
		return normalize.NoData(entry.Unit), nil
	}

	last := rows[len(rows)-1]
	rec, err := s.codec.Decode(kind, last.Payload)
	if err != nil {
		return normalize.Point{}, fmt.Errorf("latest %s row %s: %w", kind, last.ID, err)
	}
	p, err := entry.Project(rec)
	if err != nil {
		return normalize.Point{}, fmt.Errorf("project %s row %s: %w", kind, last.ID, err)
	}
	return p, nil
}

// DailyAggregate sums nutrient over Nutrition rows ending in the trailing
// 24 hours. Any row that fails to decode fails the aggregate rather than
// undercounting it.
func (s *Service) DailyAggregate(ctx context.Context, nutrient record.Nutrient) (normalize.Aggregate, error) {
	info, ok := record.LookupNutrient(nutrient)
	if !ok {
		return normalize.Aggregate{}, fmt.Errorf("%w: %q", ErrUnknownNutrient, nutrient)
	}

	rows, err := s.store.QueryByKind(ctx, record.KindNutrition)
	if err != nil {
		return normalize.Aggregate{}, err
	}

	recs := make([]*record.Nutrition, 0, len(rows))
	for _, row := range rows {
		rec, err := s.codec.Decode(record.KindNutrition, row.Payload)
		if err != nil {
			return normalize.Aggregate{}, fmt.Errorf("aggregate %s row %s: %w", nutrient, row.ID, err)
		}
		if n, ok := rec.(*record.Nutrition); ok {
			recs = append(recs, n)
		}
	}
	return normalize.AggregateNutrition(recs, info, s.now()), nil
}

// PointResponse converts p for kind to its API payload.
func (s *Service) PointResponse(kind record.Kind, p normalize.Point) types.PointResponse {
	resp := types.PointResponse{
		Kind:      string(kind),
		Value:     p.Value,
		Unit:      p.Unit,
		Timestamp: p.Timestamp,
	}
	if e, err := s.reg.Resolve(kind); err == nil {
		resp.Label = e.Label
		if resp.Unit == "" {
			resp.Unit = e.Unit
		}
	}
	return resp
}

// AggregateResponse converts a to its API payload.
func AggregateResponse(a normalize.Aggregate) types.AggregateResponse {
	return types.AggregateResponse{
		Nutrient:  string(a.Nutrient),
		Label:     a.Label,
		Quantity:  a.Quantity,
		Display:   a.Display(),
		Unit:      a.Unit,
		WindowEnd: a.WindowEnd,
	}
}
