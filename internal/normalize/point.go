// Package normalize maps decoded records to display-ready projections.
//
// Every function in this package is pure: nothing is cached and the caller
// owns the returned values. A Point is either fully populated or the no-data
// state, never a mix of the two.
package normalize

import (
	"math"
	"strconv"
	"time"
)

// Point is the scalar projection of one record: display value, unit and the
// instant the value is associated with.
type Point struct {
	Value     *string
	Unit      string
	Timestamp *time.Time
}

// Of builds a populated point.
func Of(value, unit string, at time.Time) Point {
	at = at.UTC()
	return Point{Value: &value, Unit: unit, Timestamp: &at}
}

// NoData is the point reported for a kind that has nothing cached yet.
func NoData(unit string) Point {
	return Point{Unit: unit}
}

// HasData reports whether p carries a value.
func (p Point) HasData() bool {
	return p.Value != nil && p.Timestamp != nil
}

// Valid reports whether p is either fully populated or fully empty.
func (p Point) Valid() bool {
	return (p.Value == nil) == (p.Timestamp == nil)
}

// FormatFloat renders v with the shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt renders a whole-number measurement.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FormatQuantity renders a nutrition aggregate with three decimals.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// scaled multiplies v by factor and drops binary representation noise so
// 1.8 m renders as 180 cm instead of 180.00000000000003.
func scaled(v, factor float64) float64 {
	return math.Round(v*factor*1e9) / 1e9
}
