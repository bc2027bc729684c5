// Package analytics provides the descriptive views over a loaded catalog.
// Every view is a pure function of the catalog: no shared state, no mutation
// of the input, and no dependency between views.
package analytics

import (
	"sort"
	"time"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

const histogramBins = 30

// HistogramBin is one magnitude bucket, inclusive of Lower, exclusive of
// Upper except for the final bin which includes its upper edge.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the magnitude distribution artifact.
type Histogram struct {
	Bins     []HistogramBin `json:"bins"`
	Excluded int            `json:"excluded"` // events with no magnitude
}

// MagnitudeHistogram bins event magnitudes into up to 30 data-driven buckets.
// A dataset whose magnitudes all share one value yields a single zero-width
// bin holding every event, so degenerate ranges never divide by zero.
func MagnitudeHistogram(c *domain.Catalog) Histogram {
	var mags []float64
	excluded := 0
	for _, e := range c.Events() {
		if e.Magnitude == nil {
			excluded++
			continue
		}
		mags = append(mags, *e.Magnitude)
	}
	if len(mags) == 0 {
		return Histogram{Excluded: excluded}
	}

	lo, hi := mags[0], mags[0]
	for _, m := range mags[1:] {
		if m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}

	if lo == hi {
		return Histogram{
			Bins:     []HistogramBin{{Lower: lo, Upper: hi, Count: len(mags)}},
			Excluded: excluded,
		}
	}

	width := (hi - lo) / histogramBins
	bins := make([]HistogramBin, histogramBins)
	for i := range bins {
		bins[i] = HistogramBin{Lower: lo + float64(i)*width, Upper: lo + float64(i+1)*width}
	}
	for _, m := range mags {
		i := int((m - lo) / width)
		if i >= histogramBins { // m == hi lands in the last bin
			i = histogramBins - 1
		}
		bins[i].Count++
	}
	return Histogram{Bins: bins, Excluded: excluded}
}

// MonthCount is the event count for one year-month.
type MonthCount struct {
	Month string `json:"month"` // "2006-01"
	Count int    `json:"count"`
}

// MonthlySeries counts events per year-month from the first to the last
// observed month, inclusive. Months with no events appear with a count of
// zero rather than being absent, so plots show gaps instead of hiding them.
func MonthlySeries(c *domain.Catalog) []MonthCount {
	events := c.Events()
	if len(events) == 0 {
		return nil
	}

	counts := map[string]int{}
	first, last := events[0].Time.UTC(), events[0].Time.UTC()
	for i := range events {
		t := events[i].Time.UTC()
		counts[t.Format("2006-01")]++
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}

	var series []MonthCount
	cursor := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		key := cursor.Format("2006-01")
		series = append(series, MonthCount{Month: key, Count: counts[key]})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return series
}

// MapMarker places one event on the epicenter map.
type MapMarker struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Magnitude *float64 `json:"magnitude,omitempty"`
	Place     string   `json:"place,omitempty"`
}

// EpicenterMapView is the geographic artifact: valid markers plus the map
// center at their mean coordinate.
type EpicenterMapView struct {
	Center   domain.Geo  `json:"center"`
	Markers  []MapMarker `json:"markers"`
	Excluded int         `json:"excluded"` // out-of-range coordinates
}

// EpicenterMap produces one marker per event with in-range coordinates.
// Out-of-range coordinates are excluded and counted, never fatal.
func EpicenterMap(c *domain.Catalog) EpicenterMapView {
	var view EpicenterMapView
	var sumLat, sumLon float64
	for _, e := range c.Events() {
		if !e.Geo.InRange() {
			view.Excluded++
			continue
		}
		view.Markers = append(view.Markers, MapMarker{
			Lat:       e.Geo.Lat,
			Lon:       e.Geo.Lon,
			Magnitude: e.Magnitude,
			Place:     e.Place,
		})
		sumLat += e.Geo.Lat
		sumLon += e.Geo.Lon
	}
	if n := len(view.Markers); n > 0 {
		view.Center = domain.Geo{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
	}
	return view
}

// DepthMagPoint is one event in the depth-vs-magnitude scatter.
type DepthMagPoint struct {
	Depth     float64 `json:"depth"`
	Magnitude float64 `json:"magnitude"`
}

// DepthMagnitudeView is the correlation artifact.
type DepthMagnitudeView struct {
	Points   []DepthMagPoint `json:"points"`
	Excluded int             `json:"excluded"` // missing depth or magnitude
}

// DepthMagnitude returns scatter points for events carrying both depth and
// magnitude. Missing values are excluded, never zero-substituted: a depth of
// zero is a real surface event and stays in.
func DepthMagnitude(c *domain.Catalog) DepthMagnitudeView {
	var view DepthMagnitudeView
	for _, e := range c.Events() {
		if e.Depth == nil || e.Magnitude == nil {
			view.Excluded++
			continue
		}
		view.Points = append(view.Points, DepthMagPoint{Depth: *e.Depth, Magnitude: *e.Magnitude})
	}
	return view
}

// KeyCount is a named count used by the categorical views.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// MagnitudeTypes counts events per distinct magType, descending by count.
// Events without a magType group under "unknown". Ties keep first-seen order
// so repeated runs over the same catalog render identically.
func MagnitudeTypes(c *domain.Catalog) []KeyCount {
	return countByKey(c, func(e *domain.SeismicEvent) string {
		if e.MagType == "" {
			return "unknown"
		}
		return e.MagType
	}, 0)
}

// TopZones returns the ten most active zones, descending by count, ties
// broken by first-seen order for determinism.
func TopZones(c *domain.Catalog) []KeyCount {
	return countByKey(c, func(e *domain.SeismicEvent) string { return e.Zone }, 10)
}

// countByKey aggregates events by a derived key and sorts descending by
// count with first-seen order as the tiebreak. limit 0 means unbounded.
func countByKey(c *domain.Catalog, key func(*domain.SeismicEvent) string, limit int) []KeyCount {
	events := c.Events()
	index := map[string]int{}
	var counts []KeyCount
	for i := range events {
		k := key(&events[i])
		pos, seen := index[k]
		if !seen {
			index[k] = len(counts)
			counts = append(counts, KeyCount{Key: k})
			pos = len(counts) - 1
		}
		counts[pos].Count++
	}

	// counts is in first-seen order, so a stable sort by count alone keeps
	// the deterministic tiebreak.
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
