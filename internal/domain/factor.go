package domain

// Factor names one of the seven qualitative inputs to the risk estimator.
type Factor string

const (
	FactorHistoricalMagnitude Factor = "historical_magnitude"
	FactorDepth               Factor = "seismic_depth"
	FactorTimeSinceLast       Factor = "time_since_last"
	FactorFaultActivity       Factor = "fault_activity"
	FactorSeismicPattern      Factor = "seismic_pattern"
	FactorHistoricalIntensity Factor = "historical_intensity"
	FactorMonthlyFrequency    Factor = "monthly_frequency"
)

// Factors lists all estimator inputs in canonical order. The order matters:
// it matches the parent order of the outcome node's conditional probability
// table.
var Factors = []Factor{
	FactorHistoricalMagnitude,
	FactorDepth,
	FactorTimeSinceLast,
	FactorFaultActivity,
	FactorSeismicPattern,
	FactorHistoricalIntensity,
	FactorMonthlyFrequency,
}

// Level is a discretized qualitative value assigned to a factor.
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
	LevelUnknown Level = "unknown"

	LevelShallow      Level = "shallow"
	LevelIntermediate Level = "intermediate"
	LevelDeep         Level = "deep"

	LevelRecent  Level = "recent"
	LevelDistant Level = "distant"

	LevelSporadic Level = "sporadic"
	LevelRegular  Level = "regular"
	LevelFrequent Level = "frequent"
)

// factorLevels fixes the enumerable level set per factor. The sets are
// frozen: no bins are ever learned from data.
var factorLevels = map[Factor][]Level{
	FactorHistoricalMagnitude: {LevelLow, LevelMedium, LevelHigh, LevelUnknown},
	FactorDepth:               {LevelShallow, LevelIntermediate, LevelDeep, LevelUnknown},
	FactorTimeSinceLast:       {LevelRecent, LevelMedium, LevelDistant, LevelUnknown},
	FactorFaultActivity:       {LevelLow, LevelMedium, LevelHigh},
	FactorSeismicPattern:      {LevelSporadic, LevelRegular, LevelFrequent, LevelUnknown},
	FactorHistoricalIntensity: {LevelLow, LevelMedium, LevelHigh, LevelUnknown},
	FactorMonthlyFrequency:    {LevelLow, LevelMedium, LevelHigh, LevelUnknown},
}

// LevelsFor returns the fixed level set for a factor, in CPT state order.
// Unknown factors return nil.
func LevelsFor(f Factor) []Level {
	return factorLevels[f]
}

// ValidLevel reports whether level belongs to the factor's enumerated set.
func ValidLevel(f Factor, level Level) bool {
	for _, l := range factorLevels[f] {
		if l == level {
			return true
		}
	}
	return false
}

// Assignment maps every factor to one of its levels. A complete assignment
// covers all seven factors; the estimator rejects anything less.
type Assignment map[Factor]Level
