package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRecord represents one unparsed catalog row. The field names match the
// required CSV columns of a USGS-style earthquake catalog export; the Kafka
// collector publishes the same shape as flat JSON.
type RawRecord struct {
	Time      string `json:"time"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Depth     string `json:"depth"`
	Mag       string `json:"mag"`
	MagType   string `json:"magType"`
	Place     string `json:"place"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InRange reports whether the coordinates are within valid WGS-84 bounds.
func (g Geo) InRange() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// SeismicEvent is one observed earthquake record after parsing.
//
// Depth and Magnitude are pointers because the source data routinely omits
// them; a missing value must stay distinguishable from a legitimate zero
// (surface-depth events exist).
type SeismicEvent struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Geo       Geo       `json:"geo"`
	Depth     *float64  `json:"depth,omitempty"`     // kilometers
	Magnitude *float64  `json:"magnitude,omitempty"` // typically 0-10
	MagType   string    `json:"mag_type,omitempty"`  // measurement method code, e.g. "mb", "ml"
	Place     string    `json:"place,omitempty"`     // free-text location descriptor
	Zone      string    `json:"zone"`                // derived grouping key, see DeriveZone
}

// FieldError describes a row field that could not be parsed to its expected
// semantic type. It carries enough context for the caller to correct the input.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s (value %q)", e.Field, e.Reason, e.Value)
}

// ParseRecord converts a raw catalog row into a SeismicEvent.
// time, latitude, and longitude are required; depth and mag may be empty
// (missing), but when present must parse, and depth must be non-negative.
// Out-of-range coordinates are accepted here; views that place events on a
// map exclude them instead.
func ParseRecord(rec RawRecord) (SeismicEvent, error) {
	eventTime, err := parseEventTime(rec.Time)
	if err != nil {
		return SeismicEvent{}, err
	}

	lat, err := parseRequiredFloat("latitude", rec.Latitude)
	if err != nil {
		return SeismicEvent{}, err
	}
	lon, err := parseRequiredFloat("longitude", rec.Longitude)
	if err != nil {
		return SeismicEvent{}, err
	}

	depth, err := parseOptionalFloat("depth", rec.Depth)
	if err != nil {
		return SeismicEvent{}, err
	}
	if depth != nil && *depth < 0 {
		return SeismicEvent{}, &FieldError{Field: "depth", Value: rec.Depth, Reason: "must be non-negative"}
	}

	mag, err := parseOptionalFloat("mag", rec.Mag)
	if err != nil {
		return SeismicEvent{}, err
	}

	geo := Geo{Lat: lat, Lon: lon}
	place := strings.TrimSpace(rec.Place)

	return SeismicEvent{
		ID:        generateID(rec.Time, lat, lon, rec.Mag),
		Time:      eventTime,
		Geo:       geo,
		Depth:     depth,
		Magnitude: mag,
		MagType:   strings.TrimSpace(rec.MagType),
		Place:     place,
		Zone:      DeriveZone(place, geo),
	}, nil
}

// eventTimeLayouts lists the accepted timestamp formats, tried in order.
// USGS exports use RFC 3339 with millisecond precision; regional catalogs
// often use a plain space-separated form.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseEventTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &FieldError{Field: "time", Value: value, Reason: "required field is empty"}
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &FieldError{Field: "time", Value: value, Reason: "unrecognized timestamp format"}
}

func parseRequiredFloat(field, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, &FieldError{Field: field, Value: value, Reason: "required field is empty"}
	}
	v, err := parseFloat(value)
	if err != nil {
		return 0, &FieldError{Field: field, Value: value, Reason: "not a number"}
	}
	return v, nil
}

// parseOptionalFloat returns nil for an empty value and an error for a
// present-but-malformed one. Empty means missing, never zero.
func parseOptionalFloat(field, value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := parseFloat(value)
	if err != nil {
		return nil, &FieldError{Field: field, Value: value, Reason: "not a number"}
	}
	return &v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return v, nil
}

// DeriveZone produces the grouping key used by the top-zones view.
// USGS place strings follow "<offset> of <locality>, <region>"; the region
// after the final comma gives a stable coarse grouping. Places without a
// comma group under the full string, and events with no place at all fall
// back to a 1-degree grid cell so they still aggregate deterministically.
func DeriveZone(place string, geo Geo) string {
	place = strings.TrimSpace(place)
	if place == "" {
		return fmt.Sprintf("grid:%d,%d", int(math.Floor(geo.Lat)), int(math.Floor(geo.Lon)))
	}
	if i := strings.LastIndex(place, ","); i >= 0 {
		if region := strings.TrimSpace(place[i+1:]); region != "" {
			return region
		}
	}
	return place
}

// generateID produces a deterministic ID from the row's identifying fields.
// Re-parsing the same row always yields the same ID, so replayed catalog rows
// stay recognizable downstream instead of multiplying.
func generateID(timeStr string, lat, lon float64, magStr string) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%s", timeStr, lat, lon, magStr)
	hash := sha256.Sum256([]byte(input))
	return "eq-" + hex.EncodeToString(hash[:8])
}
