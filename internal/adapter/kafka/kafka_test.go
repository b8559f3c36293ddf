package kafka

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

type fakeWriter struct {
	failures int
	calls    int
	batches  [][]kafkago.Message
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func link(id string, distance float64) domain.ThreeWayMatch {
	return domain.ThreeWayMatch{
		IgraID: id, Start: 1956, End: 2024, MetID: "54511", Province: "北京", City: "北京",
		MetLat: 39.8, MetLon: 116.4667, CmonocID: "BJFS", CmonocLat: 39.6086, CmonocLon: 115.8925, Distance: distance,
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(link("CHM00054511", 0.6053), "run-1", now)
	require.NoError(t, err)

	assert.Equal(t, []byte("CHM00054511"), msg.Key)
	assert.Contains(t, string(msg.Value), `"id_cmonoc":"BJFS"`)
	assert.Contains(t, string(msg.Value), `"distance":0.6053`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_NaN(t *testing.T) {
	_, err := serializeToMessage(link("X", math.NaN()), "run-1", time.Now())
	assert.ErrorContains(t, err, "X")
}

func TestWriter_Batches(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.Default()}

	rows := make([]domain.ThreeWayMatch, batchSize+5)
	for i := range rows {
		rows[i] = link("I", float64(i))
	}
	require.NoError(t, w.Write(context.Background(), domain.Result{RunID: "r", ThreeWay: rows}))

	require.Len(t, fw.batches, 2)
	assert.Len(t, fw.batches[0], batchSize)
	assert.Len(t, fw.batches[1], 5)
	assert.Equal(t, "kafka", w.Name())

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_RetriesThenSucceeds(t *testing.T) {
	fw := &fakeWriter{failures: 1}
	w := &Writer{writer: fw, logger: slog.Default()}

	require.NoError(t, w.Write(context.Background(), domain.Result{ThreeWay: []domain.ThreeWayMatch{link("I", 1)}}))
	assert.Equal(t, 2, fw.calls)
}

func TestWriter_CancelledDuringBackoff(t *testing.T) {
	fw := &fakeWriter{failures: maxAttempts}
	w := &Writer{writer: fw, logger: slog.Default()}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Write(ctx, domain.Result{ThreeWay: []domain.ThreeWayMatch{link("I", 1)}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWriter_NoRows(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.Default()}
	require.NoError(t, w.Write(context.Background(), domain.Result{}))
	assert.Zero(t, fw.calls)
}
