// Package record defines the measurement shapes cached from the health data
// provider and the closed set of kinds they belong to.
package record

// Kind identifies one of the supported measurement types. The string value is
// the discriminator persisted next to every cached row.
type Kind string

const (
	KindHeartRate                 Kind = "HeartRate"
	KindSteps                     Kind = "Steps"
	KindActiveCaloriesBurned      Kind = "ActiveCaloriesBurned"
	KindBasalBodyTemperature      Kind = "BasalBodyTemperature"
	KindBasalMetabolicRate        Kind = "BasalMetabolicRate"
	KindBloodGlucose              Kind = "BloodGlucose"
	KindBloodPressure             Kind = "BloodPressure"
	KindBodyFat                   Kind = "BodyFat"
	KindBodyTemperature           Kind = "BodyTemperature"
	KindBodyWaterMass             Kind = "BodyWaterMass"
	KindBoneMass                  Kind = "BoneMass"
	KindCervicalMucus             Kind = "CervicalMucus"
	KindDistance                  Kind = "Distance"
	KindElevationGained           Kind = "ElevationGained"
	KindFloorsClimbed             Kind = "FloorsClimbed"
	KindHeartRateVariabilityRmssd Kind = "HeartRateVariabilityRmssd"
	KindHeight                    Kind = "Height"
	KindHydration                 Kind = "Hydration"
	KindIntermenstrualBleeding    Kind = "IntermenstrualBleeding"
	KindLeanBodyMass              Kind = "LeanBodyMass"
	KindMenstruationPeriod        Kind = "MenstruationPeriod"
	KindMenstruationFlow          Kind = "MenstruationFlow"
	KindOvulationTest             Kind = "OvulationTest"
	KindOxygenSaturation          Kind = "OxygenSaturation"
	KindPlannedExerciseSession    Kind = "PlannedExerciseSession"
	KindPower                     Kind = "Power"
	KindRespiratoryRate           Kind = "RespiratoryRate"
	KindRestingHeartRate          Kind = "RestingHeartRate"
	KindSexualActivity            Kind = "SexualActivity"
	KindSleepSession              Kind = "SleepSession"
	KindSpeed                     Kind = "Speed"
	KindTotalCaloriesBurned       Kind = "TotalCaloriesBurned"
	KindVo2Max                    Kind = "Vo2Max"
	KindWheelchairPushes          Kind = "WheelchairPushes"
	KindWeight                    Kind = "Weight"
	KindSkinTemperature           Kind = "SkinTemperature"
	KindNutrition                 Kind = "Nutrition"
)

// String returns the persisted tag.
func (k Kind) String() string {
	return string(k)
}

// Record is implemented by every measurement shape.
type Record interface {
	// Kind returns the tag this shape is stored under.
	Kind() Kind

	// Meta exposes the provider metadata so callers can stamp the id and
	// origin reported alongside the record fields.
	Meta() *Metadata

	// Validate reports fields that are required for the shape but missing or
	// inconsistent.
	Validate() error
}
