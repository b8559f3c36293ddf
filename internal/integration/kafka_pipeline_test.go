//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/station-match-etl/internal/adapter/kafka"
	"github.com/couchcryptid/station-match-etl/internal/catalog"
	"github.com/couchcryptid/station-match-etl/internal/config"
	"github.com/couchcryptid/station-match-etl/internal/domain"
	"github.com/couchcryptid/station-match-etl/internal/match"
	"github.com/couchcryptid/station-match-etl/internal/observability"
	"github.com/couchcryptid/station-match-etl/internal/pipeline"
	"github.com/couchcryptid/station-match-etl/internal/table"
)

const testTopic = "test-station-links"

// startKafka runs a single-node broker for the duration of the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("station-match"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

type publishedLink struct {
	Row     domain.ThreeWayMatch
	Key     string
	Headers map[string]string
}

func readLink(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedLink {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from link topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var row domain.ThreeWayMatch
	require.NoError(t, json.Unmarshal(msg.Value, &row), "unmarshal link message")
	return publishedLink{Row: row, Key: string(msg.Key), Headers: headers}
}

// TestPipelinePublishesLinks runs the full pipeline over the fixture catalogs
// with both the CSV and Kafka sinks, then reads the links back off the topic.
func TestPipelinePublishesLinks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, slog.Default())
	defer writer.Close()

	testdata := filepath.Join("..", "catalog", "testdata")
	source := catalog.NewFileSource(map[domain.CatalogKind]string{
		domain.GlobalRegistry:     filepath.Join(testdata, "igra2-station-list.txt"),
		domain.NationalRegistry:   filepath.Join(testdata, "ChinaMetSites.csv"),
		domain.MonitoringRegistry: filepath.Join(testdata, "CmonocSites.txt"),
	}, slog.Default())
	outDir := t.TempDir()
	sinks := []pipeline.Sink{table.NewCSVWriter(outDir, table.DefaultNames, slog.Default()), writer}

	p := pipeline.New(source, sinks, pipeline.Options{
		MinEndYear: 2010,
		Metric:     match.Euclidean,
		Workers:    2,
		CacheSize:  64,
	}, slog.Default(), observability.NewMetricsForTesting())

	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.ThreeWay, 2)
	assert.FileExists(t, filepath.Join(outDir, "igra_met_cmonoc.csv"))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
	})
	defer consumer.Close()

	first := readLink(ctx, t, consumer)
	second := readLink(ctx, t, consumer)

	assert.Equal(t, "CHM00058362", first.Key)
	assert.Equal(t, res.ThreeWay[0], first.Row)
	assert.Equal(t, "CHM00054511", second.Key)
	assert.Equal(t, "BJFS", second.Row.CmonocID)
	assert.Equal(t, res.RunID, first.Headers["run_id"])
	assert.Equal(t, res.GeneratedAt.Format(time.RFC3339), first.Headers["generated_at"])
}
