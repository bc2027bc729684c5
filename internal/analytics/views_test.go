package analytics_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-risk-service/internal/analytics"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

type eventSpec struct {
	t     time.Time
	mag   *float64
	depth *float64
	lat   float64
	lon   float64
	mtype string
	place string
}

func buildCatalog(specs []eventSpec) *domain.Catalog {
	events := make([]domain.SeismicEvent, len(specs))
	for i, s := range specs {
		geo := domain.Geo{Lat: s.lat, Lon: s.lon}
		events[i] = domain.SeismicEvent{
			ID:        fmt.Sprintf("eq-%08d", i),
			Time:      s.t,
			Geo:       geo,
			Magnitude: s.mag,
			Depth:     s.depth,
			MagType:   s.mtype,
			Place:     s.place,
			Zone:      domain.DeriveZone(s.place, geo),
		}
	}
	return domain.NewCatalog(events)
}

func TestMagnitudeHistogram(t *testing.T) {
	t.Run("spread over thirty bins", func(t *testing.T) {
		var specs []eventSpec
		for i := 0; i < 60; i++ {
			specs = append(specs, eventSpec{t: baseTime, mag: ptr(2.0 + float64(i)*0.1)})
		}
		h := analytics.MagnitudeHistogram(buildCatalog(specs))

		require.Len(t, h.Bins, 30)
		total := 0
		for _, b := range h.Bins {
			total += b.Count
		}
		assert.Equal(t, 60, total)
		assert.Equal(t, 2.0, h.Bins[0].Lower)
		assert.InDelta(t, 7.9, h.Bins[29].Upper, 1e-9)
	})

	t.Run("maximum lands in the last bin", func(t *testing.T) {
		h := analytics.MagnitudeHistogram(buildCatalog([]eventSpec{
			{t: baseTime, mag: ptr(1.0)},
			{t: baseTime, mag: ptr(9.0)},
		}))
		require.Len(t, h.Bins, 30)
		assert.Equal(t, 1, h.Bins[29].Count)
	})

	t.Run("single value collapses to one bin", func(t *testing.T) {
		h := analytics.MagnitudeHistogram(buildCatalog([]eventSpec{
			{t: baseTime, mag: ptr(4.4)},
			{t: baseTime, mag: ptr(4.4)},
			{t: baseTime, mag: nil},
		}))

		require.Len(t, h.Bins, 1)
		assert.Equal(t, 4.4, h.Bins[0].Lower)
		assert.Equal(t, 4.4, h.Bins[0].Upper)
		assert.Equal(t, 2, h.Bins[0].Count)
		assert.Equal(t, 1, h.Excluded)
	})

	t.Run("no magnitudes at all", func(t *testing.T) {
		h := analytics.MagnitudeHistogram(buildCatalog([]eventSpec{{t: baseTime}}))
		assert.Empty(t, h.Bins)
		assert.Equal(t, 1, h.Excluded)
	})
}

func TestMonthlySeries(t *testing.T) {
	t.Run("zero fills gaps across a year boundary", func(t *testing.T) {
		series := analytics.MonthlySeries(buildCatalog([]eventSpec{
			{t: time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC)},
			{t: time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)},
			{t: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		}))

		want := []analytics.MonthCount{
			{Month: "2023-11", Count: 2},
			{Month: "2023-12", Count: 0},
			{Month: "2024-01", Count: 0},
			{Month: "2024-02", Count: 1},
		}
		if diff := cmp.Diff(want, series); diff != "" {
			t.Errorf("series mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty catalog", func(t *testing.T) {
		assert.Nil(t, analytics.MonthlySeries(domain.NewCatalog(nil)))
	})
}

func TestEpicenterMap(t *testing.T) {
	view := analytics.EpicenterMap(buildCatalog([]eventSpec{
		{t: baseTime, lat: 10, lon: 20, mag: ptr(5.0), place: "A"},
		{t: baseTime, lat: 30, lon: 40, place: "B"},
		{t: baseTime, lat: 95, lon: 20, place: "bad lat"},
		{t: baseTime, lat: 10, lon: -190, place: "bad lon"},
	}))

	require.Len(t, view.Markers, 2)
	assert.Equal(t, 2, view.Excluded)
	assert.Equal(t, 20.0, view.Center.Lat)
	assert.Equal(t, 30.0, view.Center.Lon)
	require.NotNil(t, view.Markers[0].Magnitude)
	assert.Equal(t, 5.0, *view.Markers[0].Magnitude)
	assert.Nil(t, view.Markers[1].Magnitude)
}

func TestDepthMagnitude(t *testing.T) {
	view := analytics.DepthMagnitude(buildCatalog([]eventSpec{
		{t: baseTime, depth: ptr(0), mag: ptr(3.2)},
		{t: baseTime, depth: ptr(150), mag: ptr(6.0)},
		{t: baseTime, depth: nil, mag: ptr(4.1)},
		{t: baseTime, depth: ptr(40), mag: nil},
	}))

	require.Len(t, view.Points, 2)
	assert.Equal(t, 2, view.Excluded)
	// Surface depth is a real observation, not a gap.
	assert.Equal(t, 0.0, view.Points[0].Depth)
}

func TestMagnitudeTypes(t *testing.T) {
	counts := analytics.MagnitudeTypes(buildCatalog([]eventSpec{
		{t: baseTime, mtype: "mb"},
		{t: baseTime, mtype: "mww"},
		{t: baseTime, mtype: "mb"},
		{t: baseTime, mtype: ""},
	}))

	want := []analytics.KeyCount{
		{Key: "mb", Count: 2},
		{Key: "mww", Count: 1},
		{Key: "unknown", Count: 1},
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestTopZones(t *testing.T) {
	t.Run("caps at ten with first-seen tiebreak", func(t *testing.T) {
		var specs []eventSpec
		// 15 zones: zone-0 .. zone-14, each with one event, plus a second
		// event for zone-12 so it must rank first.
		for i := 0; i < 15; i++ {
			specs = append(specs, eventSpec{t: baseTime, place: fmt.Sprintf("somewhere, zone-%02d", i)})
		}
		specs = append(specs, eventSpec{t: baseTime, place: "somewhere, zone-12"})

		counts := analytics.TopZones(buildCatalog(specs))

		require.Len(t, counts, 10)
		assert.Equal(t, analytics.KeyCount{Key: "zone-12", Count: 2}, counts[0])
		// The singleton zones keep their first-seen order behind it.
		assert.Equal(t, "zone-00", counts[1].Key)
		assert.Equal(t, "zone-08", counts[9].Key)
	})

	t.Run("placeless events group by grid cell", func(t *testing.T) {
		counts := analytics.TopZones(buildCatalog([]eventSpec{
			{t: baseTime, lat: 35.2, lon: -117.9},
			{t: baseTime, lat: 35.8, lon: -117.1},
		}))

		require.Len(t, counts, 1)
		assert.Equal(t, analytics.KeyCount{Key: "grid:35,-118", Count: 2}, counts[0])
	})
}
