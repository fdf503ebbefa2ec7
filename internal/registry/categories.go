package registry

import (
	"fmt"

	"github.com/hyperengineering/healthcache/internal/record"
)

// Category is a browse grouping of kinds.
type Category string

const (
	CategoryActivity      Category = "activity"
	CategoryComposition   Category = "composition"
	CategoryCycleTracking Category = "cycle-tracking"
	CategoryHeart         Category = "heart"
	CategoryNutrition     Category = "nutrition"
	CategoryVitals        Category = "vitals"
)

// Card is one tile of a category view. Exactly one of Kind or Nutrient is
// meaningful: nutrient cards have Kind set to record.KindNutrition.
type Card struct {
	Kind     record.Kind
	Nutrient record.Nutrient
}

// IsNutrient reports whether the card shows a nutrition aggregate.
func (c Card) IsNutrient() bool {
	return c.Kind == record.KindNutrition && c.Nutrient != ""
}

type categoryDef struct {
	name  Category
	title string
	cards []Card
}

func kinds(ks ...record.Kind) []Card {
	cards := make([]Card, len(ks))
	for i, k := range ks {
		cards[i] = Card{Kind: k}
	}
	return cards
}

func standardCategories() []categoryDef {
	nutrition := kinds(record.KindHydration)
	for _, info := range record.Nutrients() {
		nutrition = append(nutrition, Card{Kind: record.KindNutrition, Nutrient: info.Nutrient})
	}

	return []categoryDef{
		{CategoryActivity, "Activity", kinds(
			record.KindActiveCaloriesBurned,
			record.KindBasalMetabolicRate,
			record.KindTotalCaloriesBurned,
			record.KindSteps,
			record.KindFloorsClimbed,
			record.KindDistance,
			record.KindElevationGained,
			record.KindSpeed,
			record.KindPower,
			record.KindWheelchairPushes,
		)},
		{CategoryComposition, "Body measurements", kinds(
			record.KindWeight,
			record.KindHeight,
			record.KindBodyFat,
			record.KindBodyWaterMass,
			record.KindBoneMass,
			record.KindLeanBodyMass,
		)},
		{CategoryCycleTracking, "Cycle tracking", kinds(
			record.KindBasalBodyTemperature,
			record.KindMenstruationPeriod,
		)},
		{CategoryHeart, "Heart", kinds(
			record.KindHeartRate,
			record.KindRestingHeartRate,
			record.KindHeartRateVariabilityRmssd,
			record.KindVo2Max,
		)},
		{CategoryNutrition, "Nutrition", nutrition},
		{CategoryVitals, "Vitals", kinds(
			record.KindHeartRate,
			record.KindOxygenSaturation,
			record.KindRespiratoryRate,
			record.KindBloodPressure,
			record.KindBloodGlucose,
			record.KindBodyTemperature,
			record.KindVo2Max,
		)},
	}
}

// Categories returns the browse categories in display order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	for i, c := range r.categories {
		out[i] = c.name
	}
	return out
}

// CategoryTitle returns the display title of c.
func (r *Registry) CategoryTitle(c Category) (string, error) {
	i, ok := r.catIndex[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return r.categories[i].title, nil
}

// ByCategory returns the cards of c in display order.
func (r *Registry) ByCategory(c Category) ([]Card, error) {
	i, ok := r.catIndex[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	src := r.categories[i].cards
	out := make([]Card, len(src))
	copy(out, src)
	return out, nil
}
