package render_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-risk-service/internal/analytics"
	"github.com/couchcryptid/seismic-risk-service/internal/bayes"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/render"
)

func ptr(v float64) *float64 { return &v }

// Chart output is generated markup; the tests assert each renderer produces a
// non-empty HTML document without error rather than pinning the markup itself.
func TestRenderers(t *testing.T) {
	renderers := map[string]func(w *bytes.Buffer) error{
		"magnitude histogram": func(w *bytes.Buffer) error {
			return render.MagnitudeHistogram(analytics.Histogram{
				Bins: []analytics.HistogramBin{{Lower: 2, Upper: 3, Count: 5}},
			}, w)
		},
		"monthly series": func(w *bytes.Buffer) error {
			return render.MonthlySeries([]analytics.MonthCount{
				{Month: "2024-01", Count: 3},
				{Month: "2024-02", Count: 0},
			}, w)
		},
		"epicenter map": func(w *bytes.Buffer) error {
			return render.EpicenterMap(analytics.EpicenterMapView{
				Center:  domain.Geo{Lat: 10, Lon: 20},
				Markers: []analytics.MapMarker{{Lat: 10, Lon: 20, Magnitude: ptr(5.1), Place: "A"}, {Lat: 11, Lon: 21}},
			}, w)
		},
		"depth magnitude": func(w *bytes.Buffer) error {
			return render.DepthMagnitude(analytics.DepthMagnitudeView{
				Points: []analytics.DepthMagPoint{{Depth: 12, Magnitude: 4.5}},
			}, w)
		},
		"magnitude types": func(w *bytes.Buffer) error {
			return render.MagnitudeTypes([]analytics.KeyCount{{Key: "mb", Count: 4}}, w)
		},
		"top zones": func(w *bytes.Buffer) error {
			return render.TopZones([]analytics.KeyCount{{Key: "Japan", Count: 9}}, w)
		},
		"estimate": func(w *bytes.Buffer) error {
			return render.Estimate(bayes.RiskEstimate{Low: 0.2, Medium: 0.5, High: 0.3}, w)
		},
	}

	for name, fn := range renderers {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, fn(&buf))
			assert.Contains(t, buf.String(), "<html")
		})
	}
}
