package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hygrolab/humidity-service/internal/config"
	"github.com/hygrolab/humidity-service/internal/observability"
	"github.com/hygrolab/humidity-service/internal/pipeline"
	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) (*Bridge, *reading.LatestStore) {
	t.Helper()

	calc, err := psychro.New(psychro.StrategyMagnus)
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	latest := reading.NewLatestStore(10)

	cfg := &config.Config{
		MQTTBroker:    "tcp://localhost:1883",
		MQTTTopic:     "sensors/+/reading",
		MQTTSinkTopic: "humidity/enriched",
		MQTTClientID:  "bridge-test",
	}

	return NewBridge(cfg, pipeline.NewEnricher(calc, latest, metrics), slog.Default(), metrics), latest
}

func TestBridge_Process(t *testing.T) {
	b, latest := newTestBridge(t)

	payload := []byte(`{"station_id":"st-001","temperature_c":25.5,"humidity_pct":60,"observed_at":"2025-06-15T12:34:56Z"}`)
	out, err := b.process(context.Background(), "sensors/st-001/reading", payload)
	require.NoError(t, err)

	var enriched reading.EnrichedReading
	require.NoError(t, json.Unmarshal(out, &enriched))
	assert.Equal(t, "st-001", enriched.StationID)
	assert.InDelta(t, 14.21, enriched.AbsoluteHumidity, 0.005)
	assert.Equal(t, psychro.Unit, enriched.Unit)
	assert.Equal(t, string(psychro.StrategyMagnus), enriched.Strategy)

	// The enrichment path also feeds the latest readings view.
	stored, ok := latest.Get("st-001")
	require.True(t, ok)
	assert.Equal(t, 25.5, stored.TemperatureC)
}

func TestBridge_Process_InvalidPayload(t *testing.T) {
	b, latest := newTestBridge(t)

	_, err := b.process(context.Background(), "sensors/st-001/reading", []byte("not json"))
	require.Error(t, err)
	assert.Zero(t, latest.Len())
}

func TestBridge_Process_RejectedReading(t *testing.T) {
	b, _ := newTestBridge(t)

	payload := []byte(`{"station_id":"st-001","temperature_c":20,"humidity_pct":130}`)
	_, err := b.process(context.Background(), "sensors/st-001/reading", payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, psychro.ErrHumidityRange)
}

func TestBridge_Process_ArrivalTimeFallback(t *testing.T) {
	b, _ := newTestBridge(t)

	payload := []byte(`{"station_id":"st-002","temperature_c":21,"humidity_pct":55}`)
	out, err := b.process(context.Background(), "sensors/st-002/reading", payload)
	require.NoError(t, err)

	var enriched reading.EnrichedReading
	require.NoError(t, json.Unmarshal(out, &enriched))
	assert.WithinDuration(t, time.Now(), enriched.ObservedAt, time.Minute)
	assert.False(t, enriched.TimeBucket.IsZero())
}

func TestBridge_CheckReadiness_NotConnected(t *testing.T) {
	b, _ := newTestBridge(t)
	assert.Error(t, b.CheckReadiness(context.Background()))
}
