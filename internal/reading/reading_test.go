package reading

import (
	"testing"
	"time"

	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStation = "st-001"

var testObservedAt = time.Date(2025, 6, 15, 12, 34, 56, 0, time.UTC)

func testCalculator(t *testing.T) psychro.Calculator {
	t.Helper()
	c, err := psychro.New(psychro.StrategyMagnus)
	require.NoError(t, err)
	return c
}

func TestParseSensorReading(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		raw := RawMessage{
			Value: []byte(`{"station_id":"st-001","temperature_c":25.5,"humidity_pct":60,"observed_at":"2025-06-15T12:34:56Z"}`),
		}

		r, err := ParseSensorReading(raw)
		require.NoError(t, err)
		assert.Equal(t, testStation, r.StationID)
		assert.Equal(t, 25.5, r.TemperatureC)
		assert.Equal(t, 60.0, r.HumidityPct)
		assert.Equal(t, testObservedAt, r.ObservedAt)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseSensorReading(RawMessage{Value: []byte("not json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse sensor reading")
	})

	t.Run("missing station id", func(t *testing.T) {
		_, err := ParseSensorReading(RawMessage{Value: []byte(`{"temperature_c":20,"humidity_pct":50}`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "station_id")
	})

	t.Run("missing observation time inherits transport timestamp", func(t *testing.T) {
		raw := RawMessage{
			Value:     []byte(`{"station_id":"st-001","temperature_c":20,"humidity_pct":50}`),
			Timestamp: testObservedAt,
		}

		r, err := ParseSensorReading(raw)
		require.NoError(t, err)
		assert.Equal(t, testObservedAt, r.ObservedAt)
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		raw := RawMessage{
			Value: []byte(`{"station_id":"st-001","temperature_c":20,"humidity_pct":50,"firmware":"v2"}`),
		}

		_, err := ParseSensorReading(raw)
		require.NoError(t, err)
	})
}

func TestEnrich(t *testing.T) {
	frozen := time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	calc := testCalculator(t)

	t.Run("valid reading", func(t *testing.T) {
		r := SensorReading{
			StationID:    testStation,
			TemperatureC: 25.5,
			HumidityPct:  60,
			ObservedAt:   testObservedAt,
		}

		enriched, err := Enrich(r, calc)
		require.NoError(t, err)
		assert.Equal(t, testStation, enriched.StationID)
		assert.Equal(t, 25.5, enriched.TemperatureC)
		assert.Equal(t, 60.0, enriched.HumidityPct)
		assert.InDelta(t, 14.21, enriched.AbsoluteHumidity, 0.005)
		assert.Equal(t, psychro.Unit, enriched.Unit)
		assert.Equal(t, string(psychro.StrategyMagnus), enriched.Strategy)
		assert.Equal(t, testObservedAt, enriched.ObservedAt)
		assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), enriched.TimeBucket)
		assert.Equal(t, frozen, enriched.ProcessedAt)
		assert.NotEmpty(t, enriched.ID)
	})

	t.Run("deterministic id", func(t *testing.T) {
		r := SensorReading{StationID: testStation, TemperatureC: 20, HumidityPct: 50, ObservedAt: testObservedAt}

		first, err := Enrich(r, calc)
		require.NoError(t, err)
		second, err := Enrich(r, calc)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		r.HumidityPct = 51
		third, err := Enrich(r, calc)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, third.ID)
	})

	t.Run("humidity out of range is rejected", func(t *testing.T) {
		r := SensorReading{StationID: testStation, TemperatureC: 20, HumidityPct: 120, ObservedAt: testObservedAt}

		_, err := Enrich(r, calc)
		require.Error(t, err)
		assert.ErrorIs(t, err, psychro.ErrHumidityRange)
		assert.Contains(t, err.Error(), testStation)
	})

	t.Run("temperature below absolute zero is rejected", func(t *testing.T) {
		r := SensorReading{StationID: testStation, TemperatureC: -300, HumidityPct: 50, ObservedAt: testObservedAt}

		_, err := Enrich(r, calc)
		require.Error(t, err)
		assert.ErrorIs(t, err, psychro.ErrTemperature)
	})
}

func TestGenerateID(t *testing.T) {
	t.Run("station prefix", func(t *testing.T) {
		id := generateID(testStation, 20, 50, testObservedAt)
		assert.Contains(t, id, testStation+"-")
		assert.Len(t, id, len(testStation)+1+16)
	})

	t.Run("empty station falls back to bare hash", func(t *testing.T) {
		id := generateID("", 20, 50, testObservedAt)
		assert.Len(t, id, 16)
	})
}

func TestDeriveTimeBucket(t *testing.T) {
	t.Run("truncates to the hour in UTC", func(t *testing.T) {
		in := time.Date(2025, 6, 15, 12, 59, 59, 999, time.FixedZone("CST", -6*3600))
		got := deriveTimeBucket(in)
		assert.Equal(t, time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC), got)
	})

	t.Run("zero time stays zero", func(t *testing.T) {
		assert.True(t, deriveTimeBucket(time.Time{}).IsZero())
	})
}

func TestSetClock(t *testing.T) {
	frozen := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	assert.Equal(t, frozen, clock.Now())

	SetClock(nil)
	assert.WithinDuration(t, time.Now(), clock.Now(), time.Second)
}
