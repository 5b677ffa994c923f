// Command genmock generates the mock sensor reading fixtures used by the
// pipeline tests and the validate command. It runs the actual enrichment
// path, so the enriched fixture matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/sensor_readings.json \
//	  -enriched-out data/mock/enriched_readings.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
	"github.com/jonboulle/clockwork"
)

// baseTime is the first observation hour. Each station reports once per hour
// for four hours.
var baseTime = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

// sample is one temperature and relative humidity pair.
type sample struct {
	temperatureC float64
	humidityPct  float64
}

// stationProfile describes one synthetic station and its hourly samples.
type stationProfile struct {
	id      string
	samples [4]sample
}

// Four stations covering distinct slices of the input space: a gradual
// indoor drift, a humidity ramp at constant temperature, a temperature ramp
// at constant humidity, and the boundary conditions.
var profiles = []stationProfile{
	{id: "st-001", samples: [4]sample{{21.5, 45}, {22, 47.5}, {22.5, 50}, {23, 52.5}}},
	{id: "st-002", samples: [4]sample{{25, 40}, {25, 55}, {25, 70}, {25, 85}}},
	{id: "st-003", samples: [4]sample{{-5, 60}, {5, 60}, {15, 60}, {25, 60}}},
	{id: "st-004", samples: [4]sample{{-20, 100}, {0, 0}, {35, 20}, {40, 100}}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for the raw sensor readings fixture")
	enrichedOut := flag.String("enriched-out", "", "output path for the enriched readings fixture")
	flag.Parse()

	if *rawOut == "" || *enrichedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -enriched-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	reading.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.June, 15, 18, 0, 0, 0, time.UTC),
	))
	defer reading.SetClock(nil)

	calc, err := psychro.New(psychro.StrategyMagnus)
	if err != nil {
		return err
	}

	readings := generateReadings()
	log.Printf("generated %d readings from %d stations", len(readings), len(profiles))

	enriched := make([]reading.EnrichedReading, 0, len(readings))
	for _, r := range readings {
		// Run the actual enrichment path, transport envelope included.
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}
		parsed, err := reading.ParseSensorReading(reading.RawMessage{
			Value:     value,
			Timestamp: r.ObservedAt,
		})
		if err != nil {
			return fmt.Errorf("parse reading: %w", err)
		}
		e, err := reading.Enrich(parsed, calc)
		if err != nil {
			return fmt.Errorf("enrich %s at %s: %w", r.StationID, r.ObservedAt.Format(time.RFC3339), err)
		}
		enriched = append(enriched, e)
	}

	if err := writeJSON(*rawOut, readings); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*enrichedOut, enriched); err != nil {
		return fmt.Errorf("writing enriched fixture: %w", err)
	}
	log.Printf("wrote enriched fixture: %s", *enrichedOut)

	printStats(enriched)
	return nil
}

// generateReadings emits one reading per station per hour, interleaved by
// hour the way a broker would deliver them.
func generateReadings() []reading.SensorReading {
	readings := make([]reading.SensorReading, 0, len(profiles)*4)
	for hour := 0; hour < 4; hour++ {
		observed := baseTime.Add(time.Duration(hour) * time.Hour)
		for _, p := range profiles {
			s := p.samples[hour]
			readings = append(readings, reading.SensorReading{
				StationID:    p.id,
				TemperatureC: s.temperatureC,
				HumidityPct:  s.humidityPct,
				ObservedAt:   observed,
			})
		}
	}
	return readings
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats reports the aggregates the test suites assert on.
func printStats(enriched []reading.EnrichedReading) {
	if len(enriched) == 0 {
		return
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(enriched))

	byStation := map[string]int{}
	var zeroes int
	driest := enriched[0]
	wettest := enriched[0]
	for _, e := range enriched {
		byStation[e.StationID]++
		if e.AbsoluteHumidity == 0 {
			zeroes++
		}
		if e.AbsoluteHumidity < driest.AbsoluteHumidity {
			driest = e
		}
		if e.AbsoluteHumidity > wettest.AbsoluteHumidity {
			wettest = e
		}
	}

	for _, p := range profiles {
		fmt.Printf("%s: %d readings\n", p.id, byStation[p.id])
	}
	fmt.Printf("Zero absolute humidity: %d\n", zeroes)
	fmt.Printf("Driest: %s %.2f %s (%g°C, %g%%)\n",
		driest.StationID, driest.AbsoluteHumidity, driest.Unit, driest.TemperatureC, driest.HumidityPct)
	fmt.Printf("Wettest: %s %.2f %s (%g°C, %g%%)\n",
		wettest.StationID, wettest.AbsoluteHumidity, wettest.Unit, wettest.TemperatureC, wettest.HumidityPct)

	first := enriched[0]
	fmt.Printf("\nFirst reading:\n")
	fmt.Printf("  ID: %s\n", first.ID)
	fmt.Printf("  AbsoluteHumidity: %g %s\n", first.AbsoluteHumidity, first.Unit)
	fmt.Printf("  TimeBucket: %s\n", first.TimeBucket.Format(time.RFC3339))
	fmt.Printf("  ProcessedAt: %s\n", first.ProcessedAt.Format(time.RFC3339))
}
