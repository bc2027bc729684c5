package domain

import "time"

// Discretization boundaries. Each function is the single authority for its
// factor: analytics and estimation both go through these, so a raw value can
// never map to different levels in different parts of the system.

const (
	// strongEventMagnitude is the threshold above which an event resets the
	// time-since-last-event factor.
	strongEventMagnitude = 6.0

	// yearDuration uses the Julian year so decade-scale gaps do not drift.
	yearDuration = time.Duration(365.25 * 24 * float64(time.Hour))
)

// MagnitudeLevel discretizes one event's magnitude.
// Below 4 is low, 4 through 6 is medium, above 6 is high.
func MagnitudeLevel(mag *float64) Level {
	if mag == nil {
		return LevelUnknown
	}
	switch {
	case *mag < 4:
		return LevelLow
	case *mag <= 6:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// DepthLevel discretizes one event's depth using the seismological
// shallow/intermediate/deep convention (70 km and 300 km boundaries).
func DepthLevel(depth *float64) Level {
	if depth == nil {
		return LevelUnknown
	}
	switch {
	case *depth < 70:
		return LevelShallow
	case *depth <= 300:
		return LevelIntermediate
	default:
		return LevelDeep
	}
}

// TimeSinceLastLevel discretizes the gap since the last strong event.
// Under a year is recent, up to ten years is medium, beyond that distant.
func TimeSinceLastLevel(gap time.Duration) Level {
	years := float64(gap) / float64(yearDuration)
	switch {
	case years < 1:
		return LevelRecent
	case years <= 10:
		return LevelMedium
	default:
		return LevelDistant
	}
}

// FaultActivityLevel discretizes overall fault activity from the total event
// count in the catalog.
func FaultActivityLevel(totalEvents int) Level {
	switch {
	case totalEvents < 50:
		return LevelLow
	case totalEvents < 200:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// SeismicPatternLevel discretizes the recurrence pattern from the number of
// events inside the trailing five-year window.
func SeismicPatternLevel(recentEvents int) Level {
	switch {
	case recentEvents < 10:
		return LevelSporadic
	case recentEvents < 50:
		return LevelRegular
	default:
		return LevelFrequent
	}
}

// HistoricalIntensityLevel discretizes the mean magnitude across the catalog.
// hasMean is false when no event carries a magnitude.
func HistoricalIntensityLevel(meanMag float64, hasMean bool) Level {
	if !hasMean {
		return LevelUnknown
	}
	switch {
	case meanMag < 4:
		return LevelLow
	case meanMag <= 5:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// MonthlyFrequencyLevel discretizes the mean number of events per observed
// year-month. hasMean is false for an empty catalog.
func MonthlyFrequencyLevel(meanPerMonth float64, hasMean bool) Level {
	if !hasMean {
		return LevelUnknown
	}
	switch {
	case meanPerMonth < 5:
		return LevelLow
	case meanPerMonth < 20:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// DeriveFactors assembles a complete factor assignment from a catalog.
//
// The per-event factors (magnitude, depth) come from the most recent event,
// matching how an operator would describe "current" conditions; the remaining
// factors summarize the whole collection. The reference time is the newest
// event in the catalog, falling back to the injected clock when the catalog
// is empty.
func DeriveFactors(c *Catalog) Assignment {
	events := c.Events()

	ref := c.Newest()
	if ref.IsZero() {
		ref = clock.Now()
	}

	var latest *SeismicEvent
	for i := range events {
		if latest == nil || events[i].Time.After(latest.Time) {
			latest = &events[i]
		}
	}

	a := Assignment{
		FactorHistoricalMagnitude: LevelUnknown,
		FactorDepth:               LevelUnknown,
		FactorTimeSinceLast:       deriveTimeSinceLast(events, ref),
		FactorFaultActivity:       FaultActivityLevel(len(events)),
		FactorSeismicPattern:      SeismicPatternLevel(countSince(events, ref.Add(-5*yearDuration))),
		FactorHistoricalIntensity: HistoricalIntensityLevel(meanMagnitude(events)),
		FactorMonthlyFrequency:    MonthlyFrequencyLevel(meanPerMonth(events)),
	}
	if latest != nil {
		a[FactorHistoricalMagnitude] = MagnitudeLevel(latest.Magnitude)
		a[FactorDepth] = DepthLevel(latest.Depth)
	}
	return a
}

// deriveTimeSinceLast finds the most recent strong event and discretizes the
// gap to the reference time. A catalog with no strong event reads as distant:
// the factor measures elapsed quiet time, and no record of a strong event is
// the longest observable quiet.
func deriveTimeSinceLast(events []SeismicEvent, ref time.Time) Level {
	var lastStrong time.Time
	for i := range events {
		e := &events[i]
		if e.Magnitude == nil || *e.Magnitude < strongEventMagnitude {
			continue
		}
		if e.Time.After(lastStrong) {
			lastStrong = e.Time
		}
	}
	if lastStrong.IsZero() {
		return LevelDistant
	}
	return TimeSinceLastLevel(ref.Sub(lastStrong))
}

func countSince(events []SeismicEvent, cutoff time.Time) int {
	n := 0
	for i := range events {
		if !events[i].Time.Before(cutoff) {
			n++
		}
	}
	return n
}

func meanMagnitude(events []SeismicEvent) (float64, bool) {
	var sum float64
	var n int
	for i := range events {
		if events[i].Magnitude != nil {
			sum += *events[i].Magnitude
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// meanPerMonth averages event counts over the distinct year-months present in
// the catalog, not over the full span, so long quiet stretches do not dilute
// the frequency reading.
func meanPerMonth(events []SeismicEvent) (float64, bool) {
	if len(events) == 0 {
		return 0, false
	}
	months := map[string]int{}
	for i := range events {
		months[events[i].Time.UTC().Format("2006-01")]++
	}
	return float64(len(events)) / float64(len(months)), true
}
