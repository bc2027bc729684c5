package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/seismic-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seismic-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-risk-service/internal/bayes"
	"github.com/couchcryptid/seismic-risk-service/internal/catalog"
	"github.com/couchcryptid/seismic-risk-service/internal/config"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
	"github.com/couchcryptid/seismic-risk-service/internal/pipeline"
)

// alwaysReady serves readiness when streaming ingest is disabled: the service
// is ready as soon as the HTTP API is up.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// A CPT defect is a programming error, not a runtime condition.
	estimator, err := bayes.NewEstimator()
	if err != nil {
		logger.Error("invalid network definition", "error", err)
		os.Exit(1)
	}

	store := catalog.NewStore(cfg.StoreMaxDatasets)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Streaming ingest (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var ready httpadapter.ReadinessChecker = alwaysReady{}
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		ingest := pipeline.New(reader, store, logger, metrics, cfg.BatchSize)
		ready = ingest
		logger.Info("streaming ingest enabled",
			"brokers", cfg.KafkaBrokers,
			"topic", cfg.KafkaSourceTopic,
			"group", cfg.KafkaGroupID)

		go func() {
			if err := ingest.Run(ctx); err != nil {
				logger.Error("ingest error", "error", err)
			}
		}()
	} else {
		logger.Info("streaming ingest disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, estimator, ready, metrics, logger, cfg.MaxUploadBytes)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
