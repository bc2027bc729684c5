package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
	"github.com/couchcryptid/seismic-risk-service/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawMessage
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockStore struct {
	mu        sync.Mutex
	snapshots []*domain.Catalog
}

func (m *mockStore) Put(c *domain.Catalog) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, c)
	return c.Hash()
}

func (m *mockStore) all() []*domain.Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Catalog(nil), m.snapshots...)
}

func rawMessage(t *testing.T, rec domain.RawRecord) domain.RawMessage {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return domain.RawMessage{Value: data, Topic: "raw-seismic-events"}
}

func validRecord(ts string) domain.RawRecord {
	return domain.RawRecord{
		Time:      ts,
		Latitude:  "38.29",
		Longitude: "142.37",
		Depth:     "29.0",
		Mag:       "6.1",
		MagType:   "mww",
		Place:     "Japan",
	}
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestIngest_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawMessage{{
		rawMessage(t, validRecord("2024-03-15T08:21:47Z")),
		rawMessage(t, validRecord("2024-03-16T02:11:05Z")),
	}}}
	store := &mockStore{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, store, slog.Default(), metrics, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)

	snapshots := store.all()
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].Len())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, snapshots[0].Hash(), p.LatestDatasetID())
}

func TestIngest_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	store := &mockStore{}

	p := pipeline.New(ext, store, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, store.all())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestIngest_Run_SkipsUnparseableRows(t *testing.T) {
	bad := domain.RawMessage{Value: []byte("{not json"), Topic: "raw-seismic-events"}
	ext := &mockExtractor{batches: [][]domain.RawMessage{{
		bad,
		rawMessage(t, validRecord("2024-03-15T08:21:47Z")),
	}}}
	store := &mockStore{}

	p := pipeline.New(ext, store, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)

	snapshots := store.all()
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].Len())
}

func TestIngest_Run_AllRowsBadPublishesNothing(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawMessage{{
		{Value: []byte("{not json")},
	}}}
	store := &mockStore{}

	p := pipeline.New(ext, store, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, store.all())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestIngest_Run_DeduplicatesReplayedRows(t *testing.T) {
	msg := rawMessage(t, validRecord("2024-03-15T08:21:47Z"))
	ext := &mockExtractor{batches: [][]domain.RawMessage{
		{msg},
		{msg, rawMessage(t, validRecord("2024-03-16T02:11:05Z"))},
	}}
	store := &mockStore{}

	p := pipeline.New(ext, store, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)

	snapshots := store.all()
	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0].Len())
	assert.Equal(t, 2, snapshots[1].Len())
}

func TestIngest_Run_CommitsAfterPublish(t *testing.T) {
	var commits atomic.Int64
	msg := rawMessage(t, validRecord("2024-03-15T08:21:47Z"))
	msg.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}
	bad := domain.RawMessage{Value: []byte("{not json")}
	bad.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{msg, bad}}}
	store := &mockStore{}

	p := pipeline.New(ext, store, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	// Both the accepted and the skipped message commit, so neither replays.
	assert.Equal(t, int64(2), commits.Load())
}

func TestIngest_Run_RetriesAfterExtractError(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unavailable")}
	store := &mockStore{}

	p := pipeline.New(ext, store, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, store.all())
}
