package registry

import (
	n "github.com/hyperengineering/healthcache/internal/normalize"
	"github.com/hyperengineering/healthcache/internal/record"
)

// standardEntries lists every supported kind in backfill order.
func standardEntries() []Entry {
	return []Entry{
		{Kind: record.KindHeartRate, Label: "Heart rate", Unit: n.UnitBeatsPerMinute,
			New: newOf[record.HeartRate](), Project: bind(n.HeartRate)},
		{Kind: record.KindSteps, Label: "Steps", Unit: n.UnitSteps,
			New: newOf[record.Steps](), Project: bind(n.Steps)},
		{Kind: record.KindActiveCaloriesBurned, Label: "Active calories burned", Unit: n.UnitKilocalories,
			New: newOf[record.ActiveCaloriesBurned](), Project: bind(n.ActiveCaloriesBurned)},
		{Kind: record.KindBasalBodyTemperature, Label: "Basal body temperature", Unit: n.UnitCelsius,
			New: newOf[record.BasalBodyTemperature](), Project: bind(n.BasalBodyTemperature)},
		{Kind: record.KindBasalMetabolicRate, Label: "Basal metabolic rate", Unit: n.UnitKilocaloriesDay,
			New: newOf[record.BasalMetabolicRate](), Project: bind(n.BasalMetabolicRate)},
		{Kind: record.KindBloodGlucose, Label: "Blood glucose", Unit: n.UnitMilligramsPerDL,
			New: newOf[record.BloodGlucose](), Project: bind(n.BloodGlucose)},
		{Kind: record.KindBloodPressure, Label: "Blood pressure", Unit: n.UnitMmHg,
			New: newOf[record.BloodPressure](), Project: bind(n.BloodPressure)},
		{Kind: record.KindBodyFat, Label: "Body fat", Unit: n.UnitPercent,
			New: newOf[record.BodyFat](), Project: bind(n.BodyFat)},
		{Kind: record.KindBodyTemperature, Label: "Body temperature", Unit: n.UnitCelsius,
			New: newOf[record.BodyTemperature](), Project: bind(n.BodyTemperature)},
		{Kind: record.KindBodyWaterMass, Label: "Body water mass", Unit: n.UnitGrams,
			New: newOf[record.BodyWaterMass](), Project: bind(n.BodyWaterMass)},
		{Kind: record.KindBoneMass, Label: "Bone mass", Unit: n.UnitGrams,
			New: newOf[record.BoneMass](), Project: bind(n.BoneMass)},
		{Kind: record.KindCervicalMucus, Label: "Cervical mucus",
			New: newOf[record.CervicalMucus]()},
		{Kind: record.KindDistance, Label: "Distance", Unit: n.UnitMeters,
			New: newOf[record.Distance](), Project: bind(n.Distance)},
		{Kind: record.KindElevationGained, Label: "Elevation gained", Unit: n.UnitMeters,
			New: newOf[record.ElevationGained](), Project: bind(n.ElevationGained)},
		{Kind: record.KindFloorsClimbed, Label: "Floors climbed", Unit: n.UnitFloors,
			New: newOf[record.FloorsClimbed](), Project: bind(n.FloorsClimbed)},
		{Kind: record.KindHeartRateVariabilityRmssd, Label: "Heart rate variability", Unit: n.UnitMilliseconds,
			New: newOf[record.HeartRateVariabilityRmssd](), Project: bind(n.HeartRateVariabilityRmssd)},
		{Kind: record.KindHeight, Label: "Height", Unit: n.UnitCentimeters,
			New: newOf[record.Height](), Project: bind(n.Height)},
		{Kind: record.KindHydration, Label: "Hydration", Unit: n.UnitMilliliters,
			New: newOf[record.Hydration](), Project: bind(n.Hydration)},
		{Kind: record.KindIntermenstrualBleeding, Label: "Intermenstrual bleeding",
			New: newOf[record.IntermenstrualBleeding]()},
		{Kind: record.KindLeanBodyMass, Label: "Lean body mass", Unit: n.UnitGrams,
			New: newOf[record.LeanBodyMass](), Project: bind(n.LeanBodyMass)},
		{Kind: record.KindMenstruationPeriod, Label: "Menstruation period", Unit: n.UnitDays,
			New: newOf[record.MenstruationPeriod](), Project: bind(n.MenstruationPeriod)},
		{Kind: record.KindMenstruationFlow, Label: "Menstruation flow",
			New: newOf[record.MenstruationFlow]()},
		{Kind: record.KindOvulationTest, Label: "Ovulation test",
			New: newOf[record.OvulationTest]()},
		{Kind: record.KindOxygenSaturation, Label: "Oxygen saturation", Unit: n.UnitPercent,
			New: newOf[record.OxygenSaturation](), Project: bind(n.OxygenSaturation)},
		{Kind: record.KindPlannedExerciseSession, Label: "Planned exercise",
			New: newOf[record.PlannedExerciseSession]()},
		{Kind: record.KindPower, Label: "Power", Unit: n.UnitWatts,
			New: newOf[record.Power](), Project: bind(n.Power)},
		{Kind: record.KindRespiratoryRate, Label: "Respiratory rate", Unit: n.UnitBreathsPerMinute,
			New: newOf[record.RespiratoryRate](), Project: bind(n.RespiratoryRate)},
		{Kind: record.KindRestingHeartRate, Label: "Resting heart rate", Unit: n.UnitBeatsPerMinute,
			New: newOf[record.RestingHeartRate](), Project: bind(n.RestingHeartRate)},
		{Kind: record.KindSexualActivity, Label: "Sexual activity",
			New: newOf[record.SexualActivity]()},
		{Kind: record.KindSleepSession, Label: "Sleep",
			New: newOf[record.SleepSession]()},
		{Kind: record.KindSpeed, Label: "Speed", Unit: n.UnitMetersPerSecond,
			New: newOf[record.Speed](), Project: bind(n.Speed)},
		{Kind: record.KindTotalCaloriesBurned, Label: "Total calories burned", Unit: n.UnitKilocalories,
			New: newOf[record.TotalCaloriesBurned](), Project: bind(n.TotalCaloriesBurned)},
		{Kind: record.KindVo2Max, Label: "VO2 max", Unit: n.UnitMillilitersPerKgM,
			New: newOf[record.Vo2Max](), Project: bind(n.Vo2Max)},
		{Kind: record.KindWheelchairPushes, Label: "Wheelchair pushes", Unit: n.UnitPushes,
			New: newOf[record.WheelchairPushes](), Project: bind(n.WheelchairPushes)},
		{Kind: record.KindWeight, Label: "Weight", Unit: n.UnitKilograms,
			New: newOf[record.Weight](), Project: bind(n.Weight)},
		{Kind: record.KindSkinTemperature, Label: "Skin temperature",
			New: newOf[record.SkinTemperature]()},
		// Nutrition is summed per nutrient through query.DailyAggregate.
		{Kind: record.KindNutrition, Label: "Nutrition",
			New: newOf[record.Nutrition]()},
	}
}
