package normalize

// Display units.
const (
	UnitBeatsPerMinute    = "bpm"
	UnitBreathsPerMinute  = "breaths/min"
	UnitCelsius           = "°C"
	UnitCentimeters       = "cm"
	UnitDays              = "days"
	UnitFloors            = "floors"
	UnitGrams             = "g"
	UnitKilocalories      = "kcal"
	UnitKilocaloriesDay   = "kcal/day"
	UnitKilograms         = "kg"
	UnitMeters            = "m"
	UnitMetersPerSecond   = "m/s"
	UnitMilligramsPerDL   = "mg/dL"
	UnitMilliliters       = "mL"
	UnitMillilitersPerKgM = "mL/kg/min"
	UnitMilliseconds      = "ms"
	UnitMmHg              = "mmHg"
	UnitPercent           = "%"
	UnitPushes            = "pushes"
	UnitSteps             = "steps"
	UnitWatts             = "W"
)
