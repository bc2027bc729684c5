// Package render turns analytics artifacts into self-contained HTML charts.
// Rendering is presentation only: every function takes a computed artifact
// and writes markup, with no access to the catalog itself.
package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/couchcryptid/seismic-risk-service/internal/analytics"
	"github.com/couchcryptid/seismic-risk-service/internal/bayes"
)

// MagnitudeHistogram renders the magnitude distribution as a bar chart.
func MagnitudeHistogram(h analytics.Histogram, w io.Writer) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Magnitude distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	labels := make([]string, len(h.Bins))
	data := make([]opts.BarData, len(h.Bins))
	for i, b := range h.Bins {
		labels[i] = fmt.Sprintf("%.2f–%.2f", b.Lower, b.Upper)
		data[i] = opts.BarData{Value: b.Count}
	}
	bar.SetXAxis(labels).AddSeries("events", data)
	return bar.Render(w)
}

// MonthlySeries renders monthly event counts as a line chart.
func MonthlySeries(series []analytics.MonthCount, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Events per month"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	labels := make([]string, len(series))
	data := make([]opts.LineData, len(series))
	for i, p := range series {
		labels[i] = p.Month
		data[i] = opts.LineData{Value: p.Count}
	}
	line.SetXAxis(labels).AddSeries("events", data)
	return line.Render(w)
}

// EpicenterMap renders event markers on a world map.
func EpicenterMap(v analytics.EpicenterMapView, w io.Writer) error {
	geo := charts.NewGeo()
	geo.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Epicenters"}),
		charts.WithGeoComponentOpts(opts.GeoComponent{Map: "world"}),
	)

	data := make([]opts.GeoData, len(v.Markers))
	for i, m := range v.Markers {
		mag := 0.0
		if m.Magnitude != nil {
			mag = *m.Magnitude
		}
		data[i] = opts.GeoData{Name: m.Place, Value: []interface{}{m.Lon, m.Lat, mag}}
	}
	geo.AddSeries("epicenters", types.ChartScatter, data)
	return geo.Render(w)
}

// DepthMagnitude renders the depth-vs-magnitude correlation as a scatter plot.
func DepthMagnitude(v analytics.DepthMagnitudeView, w io.Writer) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Depth vs magnitude"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "depth (km)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "magnitude", Type: "value"}),
	)

	data := make([]opts.ScatterData, len(v.Points))
	for i, p := range v.Points {
		data[i] = opts.ScatterData{Value: []interface{}{p.Depth, p.Magnitude}}
	}
	scatter.AddSeries("events", data)
	return scatter.Render(w)
}

// MagnitudeTypes renders the per-magType counts as a bar chart.
func MagnitudeTypes(counts []analytics.KeyCount, w io.Writer) error {
	return keyCountBar("Magnitude types", counts, w)
}

// TopZones renders the most active zones as a bar chart.
func TopZones(counts []analytics.KeyCount, w io.Writer) error {
	return keyCountBar("Top seismic zones", counts, w)
}

func keyCountBar(title string, counts []analytics.KeyCount, w io.Writer) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		labels[i] = c.Key
		data[i] = opts.BarData{Value: c.Count}
	}
	bar.SetXAxis(labels).AddSeries("events", data)
	return bar.Render(w)
}

// Estimate renders the three-way risk distribution as a comparison bar chart.
func Estimate(est bayes.RiskEstimate, w io.Writer) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Seismic probability"}),
	)
	bar.SetXAxis([]string{"low", "medium", "high"}).AddSeries("probability", []opts.BarData{
		{Value: est.Low},
		{Value: est.Medium},
		{Value: est.High},
	})
	return bar.Render(w)
}
