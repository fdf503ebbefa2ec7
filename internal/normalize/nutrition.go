package normalize

import (
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
)

// Window is the trailing span summed by AggregateNutrition.
const Window = 24 * time.Hour

// Aggregate is the sum of one nutrient over the trailing window.
type Aggregate struct {
	Nutrient  record.Nutrient
	Label     string
	Quantity  float64
	Unit      string
	WindowEnd time.Time
}

// Display renders the quantity with three decimals.
func (a Aggregate) Display() string {
	return FormatQuantity(a.Quantity)
}

// AggregateNutrition sums nutrient over records whose end time falls in
// (now-Window, now]. Records without the nutrient contribute zero.
func AggregateNutrition(records []*record.Nutrition, nutrient record.NutrientInfo, now time.Time) Aggregate {
	now = now.UTC()
	from := now.Add(-Window)

	var sum float64
	for _, r := range records {
		if r == nil || !InWindow(r.EndTime.Time, from, now) {
			continue
		}
		if q := nutrient.Quantity(r); q != nil {
			sum += *q
		}
	}

	return Aggregate{
		Nutrient:  nutrient.Nutrient,
		Label:     nutrient.Label,
		Quantity:  sum,
		Unit:      nutrient.Unit,
		WindowEnd: now,
	}
}

// InWindow reports whether t is in (from, to].
func InWindow(t, from, to time.Time) bool {
	return t.After(from) && !t.After(to)
}
