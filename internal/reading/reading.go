// Package reading defines the sensor reading types flowing through the
// service and the enrichment step that attaches absolute humidity to them.
//
// A reading travels three stages: RawMessage is the transport envelope as it
// arrives from a broker, SensorReading is the parsed station sample, and
// EnrichedReading carries the computed absolute humidity plus processing
// metadata. Enrichment is deterministic apart from ProcessedAt, which comes
// from the package clock so tests can freeze it.
package reading

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hygrolab/humidity-service/internal/psychro"
)

// RawMessage represents an unprocessed message from a source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SensorReading is the payload stations publish: one temperature and
// relative humidity sample.
type SensorReading struct {
	StationID    string    `json:"station_id"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	ObservedAt   time.Time `json:"observed_at"`
}

// EnrichedReading is a sensor reading with the computed absolute humidity
// and processing metadata attached.
type EnrichedReading struct {
	ID               string    `json:"id"`
	StationID        string    `json:"station_id"`
	TemperatureC     float64   `json:"temperature_c"`
	HumidityPct      float64   `json:"humidity_pct"`
	AbsoluteHumidity float64   `json:"absolute_humidity_gm3"`
	Unit             string    `json:"unit"`
	Strategy         string    `json:"strategy"`
	ObservedAt       time.Time `json:"observed_at"`
	TimeBucket       time.Time `json:"time_bucket"`
	ProcessedAt      time.Time `json:"processed_at"`
}

// ParseSensorReading deserializes a RawMessage's value into a SensorReading.
// A reading without an observation time inherits the transport timestamp.
func ParseSensorReading(raw RawMessage) (SensorReading, error) {
	var r SensorReading
	if err := json.Unmarshal(raw.Value, &r); err != nil {
		return SensorReading{}, fmt.Errorf("parse sensor reading: %w", err)
	}

	if r.StationID == "" {
		return SensorReading{}, errors.New("parse sensor reading: station_id is required")
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = raw.Timestamp
	}

	return r, nil
}

// Enrich computes absolute humidity for a parsed reading and attaches
// processing metadata. Readings the calculator rejects come back as an
// error so the pipeline can skip them without losing the batch.
func Enrich(r SensorReading, calc psychro.Calculator) (EnrichedReading, error) {
	res, err := calc.Calculate(r.TemperatureC, r.HumidityPct)
	if err != nil {
		return EnrichedReading{}, fmt.Errorf("enrich reading from %q: %w", r.StationID, err)
	}

	return EnrichedReading{
		ID:               generateID(r.StationID, r.TemperatureC, r.HumidityPct, r.ObservedAt),
		StationID:        r.StationID,
		TemperatureC:     r.TemperatureC,
		HumidityPct:      r.HumidityPct,
		AbsoluteHumidity: res.AbsoluteHumidity,
		Unit:             res.Unit,
		Strategy:         string(calc.Strategy()),
		ObservedAt:       r.ObservedAt,
		TimeBucket:       deriveTimeBucket(r.ObservedAt),
		ProcessedAt:      clock.Now(),
	}, nil
}

// generateID produces a deterministic ID from the reading's key fields.
// Reprocessing the same raw message yields the same ID, which keeps
// replays idempotent for downstream consumers.
func generateID(stationID string, temperatureC, humidityPct float64, observedAt time.Time) string {
	input := fmt.Sprintf("%s|%g|%g|%d", stationID, temperatureC, humidityPct, observedAt.UnixNano())
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if stationID == "" {
		return short
	}
	return stationID + "-" + short
}

// deriveTimeBucket truncates the observation time to the hour in UTC.
// Returns zero time if the input is zero.
func deriveTimeBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return t.UTC().Truncate(time.Hour)
}
