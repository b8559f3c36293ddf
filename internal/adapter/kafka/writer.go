package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-match-etl/internal/config"
	"github.com/couchcryptid/station-match-etl/internal/domain"
)

const (
	batchSize      = 100
	maxAttempts    = 5
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes three-way links to a Kafka topic, one message per row.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Write publishes every three-way row of res in batches. A failed batch is
// retried with exponential backoff before the run gives up.
func (w *Writer) Write(ctx context.Context, res domain.Result) error {
	for start := 0; start < len(res.ThreeWay); start += batchSize {
		end := min(start+batchSize, len(res.ThreeWay))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, row := range res.ThreeWay[start:end] {
			msg, err := serializeToMessage(row, res.RunID, res.GeneratedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writeWithRetry(ctx, msgs); err != nil {
			return err
		}
	}
	w.logger.Info("links published", "rows", len(res.ThreeWay), "run_id", res.RunID)
	return nil
}

func (w *Writer) writeWithRetry(ctx context.Context, msgs []kafkago.Message) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("publish failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if attempt == maxAttempts || !sharedretry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("publish %d links: %w", len(msgs), err)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a three-way link into a Kafka message keyed by
// the global-registry station.
func serializeToMessage(row domain.ThreeWayMatch, runID string, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize link %s: %w", row.IgraID, err)
	}
	return kafkago.Message{
		Key:   []byte(row.IgraID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
