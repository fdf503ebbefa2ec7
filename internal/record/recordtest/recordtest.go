// Package recordtest builds populated records for tests.
package recordtest

import (
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
)

// Origin is the origin stamped on samples.
const Origin = "com.example.wearable"

// Sample returns a valid record of kind with the given id whose measurement
// ends at end. It panics for an unknown kind.
func Sample(kind record.Kind, id string, end time.Time) record.Record {
	meta := record.Metadata{ID: id, Origin: Origin, LastModified: record.At(end)}
	inst := record.Instant{Metadata: meta, Time: record.At(end)}
	iv := record.Interval{Metadata: meta, StartTime: record.At(end.Add(-time.Hour)), EndTime: record.At(end)}
	mid := record.At(end.Add(-30 * time.Minute))
	f := func(v float64) *float64 { return &v }

	switch kind {
	case record.KindHeartRate:
		return &record.HeartRate{Interval: iv, Samples: []record.HeartRateSample{
			{Time: mid, BeatsPerMinute: 64},
			{Time: record.At(end), BeatsPerMinute: 71},
		}}
	case record.KindSteps:
		return &record.Steps{Interval: iv, Count: 1200}
	case record.KindActiveCaloriesBurned:
		return &record.ActiveCaloriesBurned{Interval: iv, Kilocalories: 310.5}
	case record.KindBasalBodyTemperature:
		return &record.BasalBodyTemperature{Instant: inst, TemperatureCelsius: 36.55}
	case record.KindBasalMetabolicRate:
		return &record.BasalMetabolicRate{Instant: inst, KilocaloriesPerDay: 1650}
	case record.KindBloodGlucose:
		return &record.BloodGlucose{Instant: inst, MilligramsPerDeciliter: 94, RelationToMeal: "fasting"}
	case record.KindBloodPressure:
		return &record.BloodPressure{Instant: inst, SystolicMmHg: 118, DiastolicMmHg: 76}
	case record.KindBodyFat:
		return &record.BodyFat{Instant: inst, Percentage: 18.2}
	case record.KindBodyTemperature:
		return &record.BodyTemperature{Instant: inst, TemperatureCelsius: 36.8}
	case record.KindBodyWaterMass:
		return &record.BodyWaterMass{Instant: inst, Grams: 41000}
	case record.KindBoneMass:
		return &record.BoneMass{Instant: inst, Grams: 3100}
	case record.KindCervicalMucus:
		return &record.CervicalMucus{Instant: inst, Appearance: "creamy"}
	case record.KindDistance:
		return &record.Distance{Interval: iv, Meters: 5234.7}
	case record.KindElevationGained:
		return &record.ElevationGained{Interval: iv, Meters: 42}
	case record.KindFloorsClimbed:
		return &record.FloorsClimbed{Interval: iv, Floors: 7}
	case record.KindHeartRateVariabilityRmssd:
		return &record.HeartRateVariabilityRmssd{Instant: inst, Milliseconds: 38.4}
	case record.KindHeight:
		return &record.Height{Instant: inst, Meters: 1.78}
	case record.KindHydration:
		return &record.Hydration{Interval: iv, Milliliters: 500}
	case record.KindIntermenstrualBleeding:
		return &record.IntermenstrualBleeding{Instant: inst}
	case record.KindLeanBodyMass:
		return &record.LeanBodyMass{Instant: inst, Grams: 58000}
	case record.KindMenstruationPeriod:
		return &record.MenstruationPeriod{Interval: record.Interval{
			Metadata:  meta,
			StartTime: record.At(end.Add(-5 * 24 * time.Hour)),
			EndTime:   record.At(end),
		}}
	case record.KindMenstruationFlow:
		return &record.MenstruationFlow{Instant: inst, Flow: "medium"}
	case record.KindOvulationTest:
		return &record.OvulationTest{Instant: inst, Result: "negative"}
	case record.KindOxygenSaturation:
		return &record.OxygenSaturation{Instant: inst, Percentage: 97}
	case record.KindPlannedExerciseSession:
		return &record.PlannedExerciseSession{Interval: iv, ExerciseType: "running", Title: "Intervals"}
	case record.KindPower:
		return &record.Power{Interval: iv, Samples: []record.PowerSample{
			{Time: mid, Watts: 180},
			{Time: record.At(end), Watts: 212.5},
		}}
	case record.KindRespiratoryRate:
		return &record.RespiratoryRate{Instant: inst, BreathsPerMinute: 14}
	case record.KindRestingHeartRate:
		return &record.RestingHeartRate{Instant: inst, BeatsPerMinute: 54}
	case record.KindSexualActivity:
		return &record.SexualActivity{Instant: inst}
	case record.KindSleepSession:
		return &record.SleepSession{Interval: iv, Stages: []record.SleepStage{
			{StartTime: iv.StartTime, EndTime: mid, Stage: "light"},
			{StartTime: mid, EndTime: iv.EndTime, Stage: "deep"},
		}}
	case record.KindSpeed:
		return &record.Speed{Interval: iv, Samples: []record.SpeedSample{
			{Time: mid, MetersPerSecond: 2.8},
			{Time: record.At(end), MetersPerSecond: 3.1},
		}}
	case record.KindTotalCaloriesBurned:
		return &record.TotalCaloriesBurned{Interval: iv, Kilocalories: 2210}
	case record.KindVo2Max:
		return &record.Vo2Max{Instant: inst, MillilitersPerMinuteKilogram: 46.2}
	case record.KindWheelchairPushes:
		return &record.WheelchairPushes{Interval: iv, Count: 320}
	case record.KindWeight:
		return &record.Weight{Instant: inst, Kilograms: 71.3}
	case record.KindSkinTemperature:
		return &record.SkinTemperature{Interval: iv, BaselineCelsius: f(33.1), Deltas: []record.SkinTemperatureDelta{
			{Time: mid, DeltaCelsius: -0.2},
		}}
	case record.KindNutrition:
		return &record.Nutrition{Interval: iv, Name: "Lunch", ProteinGrams: f(32.5), EnergyKilocalories: f(640)}
	}
	panic("recordtest: unknown kind " + string(kind))
}

// Steps returns a Steps record ending at end.
func Steps(id string, count int64, end time.Time) *record.Steps {
	return &record.Steps{
		Interval: record.Interval{
			Metadata:  record.Metadata{ID: id, Origin: Origin},
			StartTime: record.At(end.Add(-time.Hour)),
			EndTime:   record.At(end),
		},
		Count: count,
	}
}

// Nutrition returns a Nutrition record ending at end with the given protein
// in grams. A nil protein leaves the field absent.
func Nutrition(id string, protein *float64, end time.Time) *record.Nutrition {
	return &record.Nutrition{
		Interval: record.Interval{
			Metadata:  record.Metadata{ID: id, Origin: Origin},
			StartTime: record.At(end.Add(-30 * time.Minute)),
			EndTime:   record.At(end),
		},
		ProteinGrams: protein,
	}
}
