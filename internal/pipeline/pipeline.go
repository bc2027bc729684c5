// Package pipeline runs the streaming ingest loop: raw records consumed from
// the source topic accumulate into a growing catalog, and each processed
// batch publishes a fresh immutable snapshot to the dataset store.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// SnapshotStore accepts catalog snapshots and returns their dataset id.
type SnapshotStore interface {
	Put(c *domain.Catalog) string
}

// Ingest orchestrates the consume-parse-snapshot loop.
type Ingest struct {
	extractor BatchExtractor
	store     SnapshotStore
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int

	ready atomic.Bool

	mu     sync.Mutex
	events []domain.SeismicEvent
	seen   map[string]struct{}
	lastID string
}

// New creates an Ingest with the given source, store, and observability.
func New(e BatchExtractor, s SnapshotStore, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Ingest {
	return &Ingest{
		extractor: e,
		store:     s,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		seen:      make(map[string]struct{}),
	}
}

// CheckReadiness returns nil once at least one snapshot has been published,
// or an error describing why the service is not yet ready.
func (p *Ingest) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("ingest has not published a snapshot yet")
	}
	return nil
}

// LatestDatasetID returns the id of the most recently published snapshot,
// or "" when nothing has been published.
func (p *Ingest) LatestDatasetID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastID
}

// Run executes the ingest loop until the context is cancelled.
func (p *Ingest) Run(ctx context.Context) error {
	p.logger.Info("ingest started", "batch_size", p.batchSize)
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one consume-parse-snapshot cycle. Returns false if the
// loop should stop.
func (p *Ingest) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.IngestConsumed.Add(float64(len(batch)))
	p.metrics.IngestBatchSize.Observe(float64(len(batch)))
	*backoff = 200 * time.Millisecond

	accepted := p.parseBatch(ctx, batch)
	if accepted > 0 {
		id := p.publishSnapshot()
		p.metrics.SnapshotsPublished.Inc()
		p.ready.Store(true)
		p.logger.Info("snapshot published", "id", id, "accepted", accepted, "total", p.totalEvents())
	}

	for _, raw := range batch {
		p.commitOffset(ctx, raw)
	}
	return true
}

// parseBatch parses each raw message and accumulates the accepted events,
// skipping duplicates by event id. Returns the number accepted.
func (p *Ingest) parseBatch(_ context.Context, batch []domain.RawMessage) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	accepted := 0
	for _, raw := range batch {
		event, err := domain.ParseMessage(raw)
		if err != nil {
			p.logger.Warn("parse failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.IngestErrors.Inc()
			continue
		}
		if _, dup := p.seen[event.ID]; dup {
			continue
		}
		p.seen[event.ID] = struct{}{}
		p.events = append(p.events, event)
		accepted++
	}
	return accepted
}

func (p *Ingest) publishSnapshot() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.store.Put(domain.NewCatalog(p.events))
	p.lastID = id
	return id
}

func (p *Ingest) totalEvents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances it. Returns false if the loop should stop.
func (p *Ingest) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Ingest) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
