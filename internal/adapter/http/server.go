// Package http exposes the service API: dataset upload, analytics views,
// factor derivation, and risk estimation, plus health and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/seismic-risk-service/internal/analytics"
	"github.com/couchcryptid/seismic-risk-service/internal/bayes"
	"github.com/couchcryptid/seismic-risk-service/internal/catalog"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
	"github.com/couchcryptid/seismic-risk-service/internal/render"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dataset and estimation API over HTTP.
type Server struct {
	httpServer *http.Server
	store      *catalog.Store
	estimator  *bayes.Estimator
	metrics    *observability.Metrics
	logger     *slog.Logger
	maxBody    int64
}

// NewServer wires all routes onto a stdlib mux.
func NewServer(addr string, store *catalog.Store, estimator *bayes.Estimator, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger, maxBody int64) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:     store,
		estimator: estimator,
		metrics:   metrics,
		logger:    logger,
		maxBody:   maxBody,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/datasets", s.handleLoadDataset)
	mux.HandleFunc("GET /v1/datasets/{id}/views/{view}", s.handleView)
	mux.HandleFunc("GET /v1/datasets/{id}/factors", s.handleFactors)
	mux.HandleFunc("GET /v1/datasets/{id}/estimate", s.handleDatasetEstimate)
	mux.HandleFunc("POST /v1/estimate", s.handleEstimate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// datasetResponse reports the outcome of a dataset upload.
type datasetResponse struct {
	ID       string             `json:"id"`
	Loaded   int                `json:"loaded"`
	Rejected []catalog.RowError `json:"rejected"`
}

func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body := http.MaxBytesReader(w, r.Body, s.maxBody)

	cat, report, err := catalog.Load(body)
	if err != nil {
		// Load reports every structural defect, unreadable bytes included,
		// as a *catalog.ValidationError.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := s.store.Put(cat)
	s.metrics.RowsLoaded.Add(float64(report.Loaded))
	s.metrics.RowsRejected.Add(float64(len(report.Rejected)))
	s.metrics.DatasetsStored.Set(float64(s.store.Len()))
	s.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("dataset loaded",
		"id", id,
		"loaded", report.Loaded,
		"rejected", len(report.Rejected))

	rejected := report.Rejected
	if rejected == nil {
		rejected = []catalog.RowError{}
	}
	writeJSON(w, http.StatusCreated, datasetResponse{ID: id, Loaded: report.Loaded, Rejected: rejected})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.lookup(w, r)
	if !ok {
		return
	}

	view := r.PathValue("view")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "html" {
		writeError(w, http.StatusBadRequest, "format must be json or html")
		return
	}

	s.metrics.ViewRequests.WithLabelValues(view, format).Inc()

	switch view {
	case "magnitude-histogram":
		respondView(s, w, format, analytics.MagnitudeHistogram(cat), render.MagnitudeHistogram)
	case "monthly-series":
		respondView(s, w, format, analytics.MonthlySeries(cat), render.MonthlySeries)
	case "epicenter-map":
		respondView(s, w, format, analytics.EpicenterMap(cat), render.EpicenterMap)
	case "depth-magnitude":
		respondView(s, w, format, analytics.DepthMagnitude(cat), render.DepthMagnitude)
	case "magnitude-types":
		respondView(s, w, format, analytics.MagnitudeTypes(cat), render.MagnitudeTypes)
	case "top-zones":
		respondView(s, w, format, analytics.TopZones(cat), render.TopZones)
	default:
		writeError(w, http.StatusNotFound, "unknown view: "+view)
	}
}

// respondView writes a view artifact as JSON or delegates to its HTML renderer.
func respondView[T any](s *Server, w http.ResponseWriter, format string, artifact T, renderHTML func(T, io.Writer) error) {
	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := renderHTML(artifact, w); err != nil {
			s.logger.Error("render failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func (s *Server) handleFactors(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, domain.DeriveFactors(cat))
}

func (s *Server) handleDatasetEstimate(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondEstimate(w, r, domain.DeriveFactors(cat))
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var assignment domain.Assignment
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&assignment); err != nil {
		s.metrics.EstimateRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	s.respondEstimate(w, r, assignment)
}

// estimateResponse pairs the posterior with its derived evidence and advice.
type estimateResponse struct {
	Factors  domain.Assignment  `json:"factors"`
	Estimate bayes.RiskEstimate `json:"estimate"`
	Advice   string             `json:"advice"`
}

func (s *Server) respondEstimate(w http.ResponseWriter, r *http.Request, assignment domain.Assignment) {
	start := time.Now()
	est, err := s.estimator.Estimate(assignment)
	if err != nil {
		var missing *bayes.MissingFactorError
		var invalid *bayes.InvalidFactorValueError
		switch {
		case errors.As(err, &missing), errors.As(err, &invalid):
			s.metrics.EstimateRequests.WithLabelValues("bad_request").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.metrics.EstimateRequests.WithLabelValues("error").Inc()
			s.logger.Error("estimate failed", "error", err)
			writeError(w, http.StatusInternalServerError, "estimate failed")
		}
		return
	}
	s.metrics.EstimateRequests.WithLabelValues("ok").Inc()
	s.metrics.EstimateDuration.Observe(time.Since(start).Seconds())

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.Estimate(est, w); err != nil {
			s.logger.Error("render failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, estimateResponse{
		Factors:  assignment,
		Estimate: est,
		Advice:   est.Advice(),
	})
}

// lookup resolves the dataset path parameter, writing a 404 when absent.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Catalog, bool) {
	id := r.PathValue("id")
	cat, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dataset: "+id)
		return nil, false
	}
	return cat, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
