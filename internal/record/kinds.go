package record

// Instantaneous measurements.

type BasalBodyTemperature struct {
	Instant
	TemperatureCelsius  float64 `json:"temperature_celsius"`
	MeasurementLocation string  `json:"measurement_location,omitempty"`
}

type BasalMetabolicRate struct {
	Instant
	KilocaloriesPerDay float64 `json:"kilocalories_per_day"`
}

type BloodGlucose struct {
	Instant
	MilligramsPerDeciliter float64 `json:"milligrams_per_deciliter"`
	SpecimenSource         string  `json:"specimen_source,omitempty"`
	MealType               string  `json:"meal_type,omitempty"`
	RelationToMeal         string  `json:"relation_to_meal,omitempty"`
}

type BloodPressure struct {
	Instant
	SystolicMmHg        float64 `json:"systolic_mmhg"`
	DiastolicMmHg       float64 `json:"diastolic_mmhg"`
	BodyPosition        string  `json:"body_position,omitempty"`
	MeasurementLocation string  `json:"measurement_location,omitempty"`
}

type BodyFat struct {
	Instant
	Percentage float64 `json:"percentage"`
}

type BodyTemperature struct {
	Instant
	TemperatureCelsius  float64 `json:"temperature_celsius"`
	MeasurementLocation string  `json:"measurement_location,omitempty"`
}

type BodyWaterMass struct {
	Instant
	Grams float64 `json:"grams"`
}

type BoneMass struct {
	Instant
	Grams float64 `json:"grams"`
}

type HeartRateVariabilityRmssd struct {
	Instant
	Milliseconds float64 `json:"milliseconds"`
}

type Height struct {
	Instant
	Meters float64 `json:"meters"`
}

type LeanBodyMass struct {
	Instant
	Grams float64 `json:"grams"`
}

type OxygenSaturation struct {
	Instant
	Percentage float64 `json:"percentage"`
}

type RespiratoryRate struct {
	Instant
	BreathsPerMinute float64 `json:"breaths_per_minute"`
}

type RestingHeartRate struct {
	Instant
	BeatsPerMinute int64 `json:"beats_per_minute"`
}

type Vo2Max struct {
	Instant
	MillilitersPerMinuteKilogram float64 `json:"milliliters_per_minute_kilogram"`
	MeasurementMethod            string  `json:"measurement_method,omitempty"`
}

type Weight struct {
	Instant
	Kilograms float64 `json:"kilograms"`
}

// Interval totals.

type Steps struct {
	Interval
	Count int64 `json:"count"`
}

type ActiveCaloriesBurned struct {
	Interval
	Kilocalories float64 `json:"kilocalories"`
}

type Distance struct {
	Interval
	Meters float64 `json:"meters"`
}

type ElevationGained struct {
	Interval
	Meters float64 `json:"meters"`
}

type FloorsClimbed struct {
	Interval
	Floors float64 `json:"floors"`
}

type Hydration struct {
	Interval
	Milliliters float64 `json:"milliliters"`
}

type TotalCaloriesBurned struct {
	Interval
	Kilocalories float64 `json:"kilocalories"`
}

type WheelchairPushes struct {
	Interval
	Count int64 `json:"count"`
}

type MenstruationPeriod struct {
	Interval
}

// Series. Samples are kept in the order the provider appended them.

type HeartRateSample struct {
	Time           Timestamp `json:"time"`
	BeatsPerMinute int64     `json:"beats_per_minute"`
}

type HeartRate struct {
	Interval
	Samples []HeartRateSample `json:"samples"`
}

func (r *HeartRate) Validate() error {
	if err := r.Interval.Validate(); err != nil {
		return err
	}
	if len(r.Samples) == 0 {
		return emptySeries()
	}
	return nil
}

type PowerSample struct {
	Time  Timestamp `json:"time"`
	Watts float64   `json:"watts"`
}

type Power struct {
	Interval
	Samples []PowerSample `json:"samples"`
}

func (r *Power) Validate() error {
	if err := r.Interval.Validate(); err != nil {
		return err
	}
	if len(r.Samples) == 0 {
		return emptySeries()
	}
	return nil
}

type SpeedSample struct {
	Time            Timestamp `json:"time"`
	MetersPerSecond float64   `json:"meters_per_second"`
}

type Speed struct {
	Interval
	Samples []SpeedSample `json:"samples"`
}

func (r *Speed) Validate() error {
	if err := r.Interval.Validate(); err != nil {
		return err
	}
	if len(r.Samples) == 0 {
		return emptySeries()
	}
	return nil
}

type SkinTemperatureDelta struct {
	Time         Timestamp `json:"time"`
	DeltaCelsius float64   `json:"delta_celsius"`
}

type SkinTemperature struct {
	Interval
	BaselineCelsius     *float64               `json:"baseline_celsius,omitempty"`
	Deltas              []SkinTemperatureDelta `json:"deltas"`
	MeasurementLocation string                 `json:"measurement_location,omitempty"`
}

// Category and session records. None of these reduce to a single scalar.

type CervicalMucus struct {
	Instant
	Appearance string `json:"appearance,omitempty"`
	Sensation  string `json:"sensation,omitempty"`
}

type IntermenstrualBleeding struct {
	Instant
}

type MenstruationFlow struct {
	Instant
	Flow string `json:"flow,omitempty"`
}

type OvulationTest struct {
	Instant
	Result string `json:"result"`
}

type SexualActivity struct {
	Instant
	ProtectionUsed string `json:"protection_used,omitempty"`
}

type PlannedExerciseSession struct {
	Interval
	ExerciseType       string `json:"exercise_type"`
	Title              string `json:"title,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CompletedSessionID string `json:"completed_session_id,omitempty"`
}

type SleepStage struct {
	StartTime Timestamp `json:"start_time"`
	EndTime   Timestamp `json:"end_time"`
	Stage     string    `json:"stage"`
}

type SleepSession struct {
	Interval
	Title  string       `json:"title,omitempty"`
	Notes  string       `json:"notes,omitempty"`
	Stages []SleepStage `json:"stages,omitempty"`
}

func (*BasalBodyTemperature) Kind() Kind      { return KindBasalBodyTemperature }
func (*BasalMetabolicRate) Kind() Kind        { return KindBasalMetabolicRate }
func (*BloodGlucose) Kind() Kind              { return KindBloodGlucose }
func (*BloodPressure) Kind() Kind             { return KindBloodPressure }
func (*BodyFat) Kind() Kind                   { return KindBodyFat }
func (*BodyTemperature) Kind() Kind           { return KindBodyTemperature }
func (*BodyWaterMass) Kind() Kind             { return KindBodyWaterMass }
func (*BoneMass) Kind() Kind                  { return KindBoneMass }
func (*HeartRateVariabilityRmssd) Kind() Kind { return KindHeartRateVariabilityRmssd }
func (*Height) Kind() Kind                    { return KindHeight }
func (*LeanBodyMass) Kind() Kind              { return KindLeanBodyMass }
func (*OxygenSaturation) Kind() Kind          { return KindOxygenSaturation }
func (*RespiratoryRate) Kind() Kind           { return KindRespiratoryRate }
func (*RestingHeartRate) Kind() Kind          { return KindRestingHeartRate }
func (*Vo2Max) Kind() Kind                    { return KindVo2Max }
func (*Weight) Kind() Kind                    { return KindWeight }
func (*Steps) Kind() Kind                     { return KindSteps }
func (*ActiveCaloriesBurned) Kind() Kind      { return KindActiveCaloriesBurned }
func (*Distance) Kind() Kind                  { return KindDistance }
func (*ElevationGained) Kind() Kind           { return KindElevationGained }
func (*FloorsClimbed) Kind() Kind             { return KindFloorsClimbed }
func (*Hydration) Kind() Kind                 { return KindHydration }
func (*TotalCaloriesBurned) Kind() Kind       { return KindTotalCaloriesBurned }
func (*WheelchairPushes) Kind() Kind          { return KindWheelchairPushes }
func (*MenstruationPeriod) Kind() Kind        { return KindMenstruationPeriod }
func (*HeartRate) Kind() Kind                 { return KindHeartRate }
func (*Power) Kind() Kind                     { return KindPower }
func (*Speed) Kind() Kind                     { return KindSpeed }
func (*SkinTemperature) Kind() Kind           { return KindSkinTemperature }
func (*CervicalMucus) Kind() Kind             { return KindCervicalMucus }
func (*IntermenstrualBleeding) Kind() Kind    { return KindIntermenstrualBleeding }
func (*MenstruationFlow) Kind() Kind          { return KindMenstruationFlow }
func (*OvulationTest) Kind() Kind             { return KindOvulationTest }
func (*SexualActivity) Kind() Kind            { return KindSexualActivity }
func (*PlannedExerciseSession) Kind() Kind    { return KindPlannedExerciseSession }
func (*SleepSession) Kind() Kind              { return KindSleepSession }
