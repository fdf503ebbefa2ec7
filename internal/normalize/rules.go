package normalize

import (
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
)

// Instantaneous kinds report their single value at the measurement time.

func BasalBodyTemperature(r *record.BasalBodyTemperature) Point {
	return Of(FormatFloat(r.TemperatureCelsius), UnitCelsius, r.Time.Time)
}

func BasalMetabolicRate(r *record.BasalMetabolicRate) Point {
	return Of(FormatFloat(r.KilocaloriesPerDay), UnitKilocaloriesDay, r.Time.Time)
}

func BloodGlucose(r *record.BloodGlucose) Point {
	return Of(FormatFloat(r.MilligramsPerDeciliter), UnitMilligramsPerDL, r.Time.Time)
}

// BloodPressure renders as systolic/diastolic.
func BloodPressure(r *record.BloodPressure) Point {
	v := FormatFloat(r.SystolicMmHg) + "/" + FormatFloat(r.DiastolicMmHg)
	return Of(v, UnitMmHg, r.Time.Time)
}

func BodyFat(r *record.BodyFat) Point {
	return Of(FormatFloat(r.Percentage), UnitPercent, r.Time.Time)
}

func BodyTemperature(r *record.BodyTemperature) Point {
	return Of(FormatFloat(r.TemperatureCelsius), UnitCelsius, r.Time.Time)
}

func BodyWaterMass(r *record.BodyWaterMass) Point {
	return Of(FormatFloat(r.Grams), UnitGrams, r.Time.Time)
}

func BoneMass(r *record.BoneMass) Point {
	return Of(FormatFloat(r.Grams), UnitGrams, r.Time.Time)
}

func HeartRateVariabilityRmssd(r *record.HeartRateVariabilityRmssd) Point {
	return Of(FormatFloat(r.Milliseconds), UnitMilliseconds, r.Time.Time)
}

// Height is stored in meters and displayed in centimeters.
func Height(r *record.Height) Point {
	return Of(FormatFloat(scaled(r.Meters, 100)), UnitCentimeters, r.Time.Time)
}

func LeanBodyMass(r *record.LeanBodyMass) Point {
	return Of(FormatFloat(r.Grams), UnitGrams, r.Time.Time)
}

func OxygenSaturation(r *record.OxygenSaturation) Point {
	return Of(FormatFloat(r.Percentage), UnitPercent, r.Time.Time)
}

func RespiratoryRate(r *record.RespiratoryRate) Point {
	return Of(FormatFloat(r.BreathsPerMinute), UnitBreathsPerMinute, r.Time.Time)
}

func RestingHeartRate(r *record.RestingHeartRate) Point {
	return Of(FormatInt(r.BeatsPerMinute), UnitBeatsPerMinute, r.Time.Time)
}

func Vo2Max(r *record.Vo2Max) Point {
	return Of(FormatFloat(r.MillilitersPerMinuteKilogram), UnitMillilitersPerKgM, r.Time.Time)
}

func Weight(r *record.Weight) Point {
	return Of(FormatFloat(r.Kilograms), UnitKilograms, r.Time.Time)
}

// Interval kinds report their total at the end of the interval.

func Steps(r *record.Steps) Point {
	return Of(FormatInt(r.Count), UnitSteps, r.EndTime.Time)
}

func ActiveCaloriesBurned(r *record.ActiveCaloriesBurned) Point {
	return Of(FormatFloat(r.Kilocalories), UnitKilocalories, r.EndTime.Time)
}

func Distance(r *record.Distance) Point {
	return Of(FormatFloat(r.Meters), UnitMeters, r.EndTime.Time)
}

func ElevationGained(r *record.ElevationGained) Point {
	return Of(FormatFloat(r.Meters), UnitMeters, r.EndTime.Time)
}

func FloorsClimbed(r *record.FloorsClimbed) Point {
	return Of(FormatFloat(r.Floors), UnitFloors, r.EndTime.Time)
}

func Hydration(r *record.Hydration) Point {
	return Of(FormatFloat(r.Milliliters), UnitMilliliters, r.EndTime.Time)
}

func TotalCaloriesBurned(r *record.TotalCaloriesBurned) Point {
	return Of(FormatFloat(r.Kilocalories), UnitKilocalories, r.EndTime.Time)
}

func WheelchairPushes(r *record.WheelchairPushes) Point {
	return Of(FormatInt(r.Count), UnitPushes, r.EndTime.Time)
}

// MenstruationPeriod reports the number of whole days between start and end.
func MenstruationPeriod(r *record.MenstruationPeriod) Point {
	days := int64(r.EndTime.Sub(r.StartTime.Time) / (24 * time.Hour))
	return Of(FormatInt(days), UnitDays, r.EndTime.Time)
}

// Series kinds report the last sample in the order the provider appended
// them. Samples are not re-sorted: when the provider hands us a sequence that
// is not monotonic in time, the last appended sample still wins. Only heart
// rate carries the sample's own time; power and speed are stamped with the
// end of the record.

func HeartRate(r *record.HeartRate) Point {
	if len(r.Samples) == 0 {
		return NoData(UnitBeatsPerMinute)
	}
	s := r.Samples[len(r.Samples)-1]
	return Of(FormatInt(s.BeatsPerMinute), UnitBeatsPerMinute, s.Time.Time)
}

func Power(r *record.Power) Point {
	if len(r.Samples) == 0 {
		return NoData(UnitWatts)
	}
	return Of(FormatFloat(r.Samples[len(r.Samples)-1].Watts), UnitWatts, r.EndTime.Time)
}

func Speed(r *record.Speed) Point {
	if len(r.Samples) == 0 {
		return NoData(UnitMetersPerSecond)
	}
	return Of(FormatFloat(r.Samples[len(r.Samples)-1].MetersPerSecond), UnitMetersPerSecond, r.EndTime.Time)
}
