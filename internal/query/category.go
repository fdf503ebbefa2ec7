package query

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/healthcache/internal/normalize"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/types"
)

// CardView is one resolved card. Aggregate is set for nutrient cards, Point
// for every other card.
type CardView struct {
	Card      registry.Card
	Point     *normalize.Point
	Aggregate *normalize.Aggregate
}

// CategoryView is a browse category with every card resolved.
type CategoryView struct {
	Category registry.Category
	Title    string
	Cards    []CardView
}

// Category resolves every card of c concurrently. A card that fails on its
// own renders as no data; a store failure or cancellation fails the view.
func (s *Service) Category(ctx context.Context, c registry.Category) (*CategoryView, error) {
	title, err := s.reg.CategoryTitle(c)
	if err != nil {
		return nil, err
	}
	cards, err := s.reg.ByCategory(c)
	if err != nil {
		return nil, err
	}

	views := make([]CardView, len(cards))
	g, gctx := errgroup.WithContext(ctx)
	for i, card := range cards {
		g.Go(func() error {
			v, err := s.loadCard(gctx, card)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &CategoryView{Category: c, Title: title, Cards: views}, nil
}

func (s *Service) loadCard(ctx context.Context, card registry.Card) (CardView, error) {
	view := CardView{Card: card}

	if card.IsNutrient() {
		agg, err := s.DailyAggregate(ctx, card.Nutrient)
		if err != nil {
			if systemic(ctx, err) {
				return view, err
			}
			s.logCardFailure(card, err)
			info, _ := record.LookupNutrient(card.Nutrient)
			agg = normalize.Aggregate{Nutrient: card.Nutrient, Label: info.Label, Unit: info.Unit, WindowEnd: s.now().UTC()}
		}
		view.Aggregate = &agg
		return view, nil
	}

	entry, err := s.reg.Resolve(card.Kind)
	if err != nil {
		s.logCardFailure(card, err)
		p := normalize.NoData("")
		view.Point = &p
		return view, nil
	}
	if !entry.Scalar() {
		p := normalize.NoData("")
		view.Point = &p
		return view, nil
	}

	p, err := s.LatestPoint(ctx, card.Kind)
	if err != nil {
		if systemic(ctx, err) {
			return view, err
		}
		s.logCardFailure(card, err)
		p = normalize.NoData(entry.Unit)
	}
	view.Point = &p
	return view, nil
}

func (s *Service) logCardFailure(card registry.Card, err error) {
	slog.Warn("card rendered without data",
		"component", "query",
		"kind", string(card.Kind),
		"nutrient", string(card.Nutrient),
		"error", err,
	)
}

// systemic reports whether err should fail the whole view.
func systemic(ctx context.Context, err error) bool {
	return errors.Is(err, store.ErrStoreIO) || ctx.Err() != nil
}

// CategoryResponse converts v to its API payload.
func (s *Service) CategoryResponse(v *CategoryView) types.CategoryResponse {
	resp := types.CategoryResponse{
		Category: string(v.Category),
		Title:    v.Title,
		Cards:    make([]types.CardResponse, len(v.Cards)),
	}
	for i, cv := range v.Cards {
		switch {
		case cv.Aggregate != nil:
			agg := AggregateResponse(*cv.Aggregate)
			resp.Cards[i] = types.CardResponse{Aggregate: &agg}
		case cv.Point != nil:
			pt := s.PointResponse(cv.Card.Kind, *cv.Point)
			resp.Cards[i] = types.CardResponse{Point: &pt}
		}
	}
	return resp
}
