package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// seismic risk service.
type Metrics struct {
	RowsLoaded     prometheus.Counter
	RowsRejected   prometheus.Counter
	DatasetsStored prometheus.Gauge
	LoadDuration   prometheus.Histogram

	// Estimation metrics.
	EstimateRequests *prometheus.CounterVec // labels: outcome={ok,bad_request,error}
	EstimateDuration prometheus.Histogram

	// View rendering metrics.
	ViewRequests *prometheus.CounterVec // labels: view, format={json,html}

	// Streaming ingest metrics.
	IngestConsumed     prometheus.Counter
	IngestErrors       prometheus.Counter
	IngestRunning      prometheus.Gauge
	SnapshotsPublished prometheus.Counter
	IngestBatchSize    prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "rows_loaded_total",
			Help:      "Total catalog rows accepted across all datasets.",
		}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "rows_rejected_total",
			Help:      "Total catalog rows rejected during loading.",
		}),
		DatasetsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "seismic_risk",
			Name:      "datasets_stored",
			Help:      "Number of catalog snapshots currently held in the store.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_risk",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete CSV parse-and-store cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EstimateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "estimate_requests_total",
			Help:      "Risk estimate requests by outcome.",
		}, []string{"outcome"}),
		EstimateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_risk",
			Name:      "estimate_duration_seconds",
			Help:      "Duration of a single network query.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "view_requests_total",
			Help:      "Analytics view requests by view name and output format.",
		}, []string{"view", "format"}),
		IngestConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "ingest_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "ingest_errors_total",
			Help:      "Total ingest rows that failed to parse.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "seismic_risk",
			Name:      "ingest_running",
			Help:      "1 when the streaming ingest loop is active, 0 when shut down.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_risk",
			Name:      "snapshots_published_total",
			Help:      "Total catalog snapshots published to the store by ingest.",
		}),
		IngestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_risk",
			Name:      "ingest_batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsRejected,
		m.DatasetsStored,
		m.LoadDuration,
		m.EstimateRequests,
		m.EstimateDuration,
		m.ViewRequests,
		m.IngestConsumed,
		m.IngestErrors,
		m.IngestRunning,
		m.SnapshotsPublished,
		m.IngestBatchSize,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "rows_loaded_total"}),
		RowsRejected:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "rows_rejected_total"}),
		DatasetsStored:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "seismic_risk", Name: "datasets_stored"}),
		LoadDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_risk", Name: "load_duration_seconds"}),
		EstimateRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "estimate_requests_total"}, []string{"outcome"}),
		EstimateDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_risk", Name: "estimate_duration_seconds"}),
		ViewRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "view_requests_total"}, []string{"view", "format"}),
		IngestConsumed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "ingest_consumed_total"}),
		IngestErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "ingest_errors_total"}),
		IngestRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "seismic_risk", Name: "ingest_running"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_risk", Name: "snapshots_published_total"}),
		IngestBatchSize:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_risk", Name: "ingest_batch_size"}),
	}
}
