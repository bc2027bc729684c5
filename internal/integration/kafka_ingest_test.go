//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/seismic-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-risk-service/internal/catalog"
	"github.com/couchcryptid/seismic-risk-service/internal/config"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
	"github.com/couchcryptid/seismic-risk-service/internal/pipeline"
)

const testSourceTopic = "test-raw-seismic-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka in a container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func produceRecords(ctx context.Context, t *testing.T, broker string, payloads [][]byte) {
	t.Helper()

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, len(payloads))
	for i, p := range payloads {
		msgs[i] = kafkago.Message{Key: []byte(fmt.Sprintf("row-%d", i)), Value: p}
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func mustMarshal(t *testing.T, rec domain.RawRecord) []byte {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return data
}

// TestIngestEndToEnd publishes raw records to Kafka and verifies the ingest
// loop parses them and publishes a catalog snapshot to the store, skipping
// the poison message.
func TestIngestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaGroupID:       fmt.Sprintf("test-ingest-%d", time.Now().UnixNano()),
		BatchSize:          50,
		BatchFlushInterval: 2 * time.Second,
	}

	produceRecords(ctx, t, broker, [][]byte{
		mustMarshal(t, domain.RawRecord{
			Time: "2024-03-15T08:21:47Z", Latitude: "38.29", Longitude: "142.37",
			Depth: "29.0", Mag: "6.1", MagType: "mww", Place: "72 km E of Ishinomaki, Japan",
		}),
		[]byte("{not json"), // poison, must be skipped and committed
		mustMarshal(t, domain.RawRecord{
			Time: "2024-03-16T02:11:05Z", Latitude: "-33.05", Longitude: "-71.62",
			Depth: "41.3", Mag: "4.8", MagType: "mb", Place: "Offshore Valparaiso, Chile",
		}),
	})

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	store := catalog.NewStore(10)
	ingest := pipeline.New(reader, store, discardLogger(), observability.NewMetricsForTesting(), cfg.BatchSize)

	runCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- ingest.Run(runCtx) }()

	// Wait for a snapshot containing both valid events. Consumer group
	// rebalancing means the first batches may be partial.
	var cat *domain.Catalog
	require.Eventually(t, func() bool {
		id := ingest.LatestDatasetID()
		if id == "" {
			return false
		}
		snapshot, ok := store.Get(id)
		if !ok || snapshot.Len() < 2 {
			return false
		}
		cat = snapshot
		return true
	}, 60*time.Second, 500*time.Millisecond, "timed out waiting for snapshot with both events")

	require.NoError(t, ingest.CheckReadiness(ctx))

	events := cat.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Japan", events[0].Zone)
	assert.Equal(t, "Chile", events[1].Zone)
	require.NotNil(t, events[0].Magnitude)
	assert.Equal(t, 6.1, *events[0].Magnitude)

	stop()
	require.NoError(t, <-errCh)
}

// TestIngestReplayDeduplicates restarts consumption from the earliest offset
// with a fresh group and verifies replayed rows do not multiply events.
func TestIngestReplayDeduplicates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)

	row := mustMarshal(t, domain.RawRecord{
		Time: "2024-03-15T08:21:47Z", Latitude: "38.29", Longitude: "142.37",
		Depth: "29.0", Mag: "6.1", MagType: "mww", Place: "Japan",
	})
	produceRecords(ctx, t, broker, [][]byte{row, row, row})

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaGroupID:       fmt.Sprintf("test-replay-%d", time.Now().UnixNano()),
		BatchSize:          50,
		BatchFlushInterval: 2 * time.Second,
	}

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	store := catalog.NewStore(10)
	ingest := pipeline.New(reader, store, discardLogger(), observability.NewMetricsForTesting(), cfg.BatchSize)

	runCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- ingest.Run(runCtx) }()

	require.Eventually(t, func() bool {
		return ingest.LatestDatasetID() != ""
	}, 60*time.Second, 500*time.Millisecond, "timed out waiting for snapshot")

	cat, ok := store.Get(ingest.LatestDatasetID())
	require.True(t, ok)
	assert.Equal(t, 1, cat.Len(), "identical rows must collapse to one event")

	stop()
	require.NoError(t, <-errCh)
}
