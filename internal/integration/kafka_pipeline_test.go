//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hygrolab/humidity-service/internal/adapter/kafka"
	"github.com/hygrolab/humidity-service/internal/config"
	"github.com/hygrolab/humidity-service/internal/observability"
	"github.com/hygrolab/humidity-service/internal/pipeline"
	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// enrichedMessage holds a deserialized message read from the sink topic.
type enrichedMessage struct {
	Reading reading.EnrichedReading
	Key     string
	Headers map[string]string
}

// readEnriched reads a single message from the sink consumer and deserializes it.
func readEnriched(ctx context.Context, t *testing.T, consumer *kafkago.Reader) enrichedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var enriched reading.EnrichedReading
	require.NoError(t, json.Unmarshal(msg.Value, &enriched), "unmarshal sink message")

	return enrichedMessage{
		Reading: enriched,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (BatchExtractor)
// and kafka.Writer (BatchLoader) correctly round-trip a message through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish a raw sensor reading to the source topic.
	records := loadMockReadings(t)
	record := records[0] // first st-001 sample: 21.5°C at 45 %
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []reading.RawMessage
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Enrich the raw message into an enriched reading.
	calc, err := psychro.New(psychro.StrategyMagnus)
	require.NoError(t, err)
	enricher := pipeline.NewEnricher(calc, nil, observability.NewMetricsForTesting())
	enriched, err := enricher.Enrich(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []reading.EnrichedReading{enriched}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	em := readEnriched(ctx, t, consumer)
	assert.Equal(t, "st-001", em.Headers["station_id"])
	assert.Contains(t, em.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, em.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, em.Reading.ID, em.Key, "sink messages are keyed by reading ID")
	assert.True(t, strings.HasPrefix(em.Reading.ID, "st-001-"))
	assert.Equal(t, "st-001", em.Reading.StationID)
	assert.Equal(t, 21.5, em.Reading.TemperatureC)
	assert.Equal(t, 45.0, em.Reading.HumidityPct)
	assert.Equal(t, 8.48, em.Reading.AbsoluteHumidity)
	assert.Equal(t, psychro.Unit, em.Reading.Unit)
	assert.Equal(t, string(psychro.StrategyMagnus), em.Reading.Strategy)
	assert.Equal(t, time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC), em.Reading.TimeBucket)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Enricher → Writer) with
// real Kafka and verifies that all mock sensor readings are correctly enriched.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish all mock sensor readings to the source topic.
	records := loadMockReadings(t)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("record-%d", i)),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	calc, err := psychro.New(psychro.StrategyMagnus)
	require.NoError(t, err)

	latest := reading.NewLatestStore(8)
	metrics := observability.NewMetricsForTesting()
	enricher := pipeline.NewEnricher(calc, latest, metrics)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, enricher, writer, discardLogger(), metrics, 50)

	// Run the pipeline in a goroutine.
	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Read all enriched messages from the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]enrichedMessage, 0, len(records))
	for len(received) < len(records) {
		em := readEnriched(ctx, t, consumer)
		received = append(received, em)
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	// Validate counts by station.
	require.Len(t, received, len(records))
	stationCounts := map[string]int{}
	for _, em := range received {
		stationCounts[em.Reading.StationID]++

		// Every message must have station and processed_at headers.
		assert.NotEmpty(t, em.Headers["station_id"], "missing station_id header")
		assert.Contains(t, em.Headers, "processed_at", "missing processed_at header")
		_, err := time.Parse(time.RFC3339, em.Headers["processed_at"])
		assert.NoError(t, err, "invalid processed_at format")

		// All readings should have a time bucket and an ID-based key.
		assert.False(t, em.Reading.TimeBucket.IsZero(), "missing time_bucket")
		assert.Equal(t, em.Reading.ID, em.Key, "sink key should be the reading ID")
	}

	assert.Equal(t, 4, stationCounts["st-001"], "st-001 count")
	assert.Equal(t, 4, stationCounts["st-002"], "st-002 count")
	assert.Equal(t, 4, stationCounts["st-003"], "st-003 count")
	assert.Equal(t, 4, stationCounts["st-004"], "st-004 count")

	// Spot-check a known reading: st-003's top of the temperature ramp (25°C, 60 %).
	var foundRamp bool
	for _, em := range received {
		if em.Reading.StationID != "st-003" || em.Reading.TemperatureC != 25 {
			continue
		}
		foundRamp = true
		assert.Equal(t, 60.0, em.Reading.HumidityPct)
		assert.Equal(t, 13.81, em.Reading.AbsoluteHumidity)
		assert.Equal(t, psychro.Unit, em.Reading.Unit)
		assert.Equal(t, string(psychro.StrategyMagnus), em.Reading.Strategy)
		assert.Equal(t, time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC), em.Reading.TimeBucket)
		break
	}
	assert.True(t, foundRamp, "expected to find the st-003 25°C reading")

	// Spot-check the bone-dry boundary reading: st-004 at 0 % humidity.
	var foundZero bool
	for _, em := range received {
		if em.Reading.StationID != "st-004" || em.Reading.HumidityPct != 0 {
			continue
		}
		foundZero = true
		assert.Equal(t, 0.0, em.Reading.TemperatureC)
		assert.Zero(t, em.Reading.AbsoluteHumidity, "zero humidity must yield zero absolute humidity")
		assert.Equal(t, time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC), em.Reading.TimeBucket)
		break
	}
	assert.True(t, foundZero, "expected to find the st-004 dry reading")

	// The latest view retains exactly one reading per station, and in-order
	// processing means it holds each station's 12:00 sample.
	assert.Equal(t, 4, latest.Len())
	stored, ok := latest.Get("st-003")
	require.True(t, ok)
	assert.Equal(t, 13.81, stored.AbsoluteHumidity)
}

// TestPipelineEnrichError verifies that messages failing enrichment, whether
// malformed JSON or out-of-range values, are skipped and the pipeline
// continues processing valid readings.
func TestPipelineEnrichError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish: invalid JSON, a reading with impossible humidity, then a valid reading.
	records := loadMockReadings(t)
	validPayload, err := json.Marshal(records[0])
	require.NoError(t, err)

	outOfRange, err := json.Marshal(reading.SensorReading{
		StationID:    "st-900",
		TemperatureC: 25,
		HumidityPct:  130,
		ObservedAt:   records[0].ObservedAt,
	})
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad-json"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("bad-range"), Value: outOfRange},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	calc, err := psychro.New(psychro.StrategyMagnus)
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	enricher := pipeline.NewEnricher(calc, nil, metrics)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, enricher, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid reading should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	em := readEnriched(ctx, t, consumer)
	assert.Equal(t, "st-001", em.Reading.StationID)
	assert.Equal(t, 21.5, em.Reading.TemperatureC)
	assert.Equal(t, 8.48, em.Reading.AbsoluteHumidity)

	// Verify no second message arrives (both poison messages were skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
