// Command validate performs end-to-end integrity checks on the humidity
// calculators and the mock data fixtures: published reference values, cross
// strategy agreement, physical invariants, input rejection, and fixture
// consistency against the actual enrichment path.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/sensor_readings.json \
//	  -enriched-json data/mock/enriched_readings.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw sensor readings fixture")
	enrichedJSON := flag.String("enriched-json", "", "path to the enriched readings fixture")
	flag.Parse()

	if *rawJSON == "" || *enrichedJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *enrichedJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, enrichedPath string) int {
	// Set a fixed clock matching genmock so re-run enrichment reproduces the
	// fixture's ProcessedAt stamps.
	reading.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.June, 15, 18, 0, 0, 0, time.UTC),
	))
	defer reading.SetClock(nil)

	fmt.Println("=== Absolute Humidity Validation ===")
	fmt.Println()

	magnus, err := psychro.New(psychro.StrategyMagnus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build magnus calculator: %v\n", err)
		return 1
	}
	ashrae, err := psychro.New(psychro.StrategyASHRAE)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build ashrae calculator: %v\n", err)
		return 1
	}

	raw, err := loadJSON[reading.SensorReading](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw fixture: %v\n", err)
		return 1
	}
	enriched, err := loadJSON[reading.EnrichedReading](enrichedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load enriched fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateReferenceValues(magnus, ashrae),
		validateStrategyAgreement(magnus, ashrae),
		validatePhysicalInvariants(magnus, ashrae),
		validateInputGuards(magnus, ashrae),
		validateFixtureIntegrity(raw, enriched, magnus),
		validateSchemaAlignment(enriched),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw readings, %d enriched readings\n", len(raw), len(enriched))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Reference Values ──
// Both strategies must reproduce the published reference points exactly at
// the service's two decimal places.

type refCase struct {
	temperatureC float64
	humidityPct  float64
	magnus       float64
	ashrae       float64
}

var refCases = []refCase{
	{temperatureC: 25.5, humidityPct: 60, magnus: 14.21, ashrae: 14.21},
	{temperatureC: 25, humidityPct: 60, magnus: 13.81, ashrae: 13.82},
	{temperatureC: 25, humidityPct: 100, magnus: 23.02, ashrae: 23.03},
	{temperatureC: 0, humidityPct: 50, magnus: 2.42, ashrae: 2.42},
	{temperatureC: 20, humidityPct: 50, magnus: 8.64, ashrae: 8.64},
	{temperatureC: 30, humidityPct: 80, magnus: 24.28, ashrae: 24.28},
	{temperatureC: -10, humidityPct: 50, magnus: 1.18, ashrae: 1.18},
	{temperatureC: -20, humidityPct: 100, magnus: 1.08, ashrae: 1.08},
	{temperatureC: 40, humidityPct: 100, magnus: 51.17, ashrae: 51.09},
	{temperatureC: 50, humidityPct: 100, magnus: 83.16, ashrae: 82.81},
	{temperatureC: 22, humidityPct: 45, magnus: 8.73, ashrae: 8.74},
	{temperatureC: 32, humidityPct: 70, magnus: 23.66, ashrae: 23.65},
	{temperatureC: -5, humidityPct: 80, magnus: 2.73, ashrae: 2.73},
}

func validateReferenceValues(magnus, ashrae psychro.Calculator) *phase {
	p := &phase{name: "Phase 1: Reference Values"}

	for _, rc := range refCases {
		checkReference(p, magnus, rc.temperatureC, rc.humidityPct, rc.magnus)
		checkReference(p, ashrae, rc.temperatureC, rc.humidityPct, rc.ashrae)
	}
	return p
}

func checkReference(p *phase, calc psychro.Calculator, temperatureC, humidityPct, want float64) {
	res, err := calc.Calculate(temperatureC, humidityPct)
	if err != nil {
		p.errorf("%s (%g°C, %g%%): %v", calc.Strategy(), temperatureC, humidityPct, err)
		return
	}
	if !floatEq(res.AbsoluteHumidity, want) {
		p.errorf("%s (%g°C, %g%%): expected %.2f, got %.2f",
			calc.Strategy(), temperatureC, humidityPct, want, res.AbsoluteHumidity)
	}
}

// ── Phase 2: Strategy Agreement ──
// The two formulas approximate the same physics, so across the sensor range
// they must stay within 0.5% of each other, with a 0.1 g/m³ floor where the
// values are small.

var (
	gridTemps = []float64{-30, -20, -10, -5, 0, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50}
	gridHums  = []float64{5, 10, 25, 50, 75, 90, 100}
)

func validateStrategyAgreement(magnus, ashrae psychro.Calculator) *phase {
	p := &phase{name: "Phase 2: Strategy Agreement"}

	for _, temp := range gridTemps {
		for _, rh := range gridHums {
			mRes, err := magnus.Calculate(temp, rh)
			if err != nil {
				p.errorf("magnus (%g°C, %g%%): %v", temp, rh, err)
				continue
			}
			aRes, err := ashrae.Calculate(temp, rh)
			if err != nil {
				p.errorf("ashrae (%g°C, %g%%): %v", temp, rh, err)
				continue
			}

			diff := math.Abs(mRes.AbsoluteHumidity - aRes.AbsoluteHumidity)
			tol := agreementTolerance(mRes.AbsoluteHumidity)
			if diff > tol {
				p.errorf("(%g°C, %g%%): magnus %.2f vs ashrae %.2f, diff %.2f exceeds %.3f",
					temp, rh, mRes.AbsoluteHumidity, aRes.AbsoluteHumidity, diff, tol)
			}
		}
	}
	return p
}

func agreementTolerance(magnusValue float64) float64 {
	return math.Max(0.1, 0.005*magnusValue)
}

// ── Phase 3: Physical Invariants ──
// Warmer and wetter air holds more water, dry air holds none, and
// supercooled air still reports a value over liquid water.

func validatePhysicalInvariants(magnus, ashrae psychro.Calculator) *phase {
	p := &phase{name: "Phase 3: Physical Invariants"}

	for _, calc := range []psychro.Calculator{magnus, ashrae} {
		checkHumidityMonotonic(p, calc)
		checkTemperatureMonotonic(p, calc)
		checkZeroHumidity(p, calc)
		checkSupercooled(p, calc)
	}
	return p
}

func checkHumidityMonotonic(p *phase, calc psychro.Calculator) {
	for _, temp := range []float64{0, 25, 40} {
		prev := -1.0
		for rh := 10.0; rh <= 100; rh += 10 {
			res, err := calc.Calculate(temp, rh)
			if err != nil {
				p.errorf("%s (%g°C, %g%%): %v", calc.Strategy(), temp, rh, err)
				return
			}
			if res.AbsoluteHumidity <= prev {
				p.errorf("%s at %g°C: humidity %g%% gives %g, not above %g",
					calc.Strategy(), temp, rh, res.AbsoluteHumidity, prev)
			}
			prev = res.AbsoluteHumidity
		}
	}
}

func checkTemperatureMonotonic(p *phase, calc psychro.Calculator) {
	for _, rh := range []float64{30, 60, 100} {
		prev := -1.0
		for temp := -20.0; temp <= 50; temp += 5 {
			res, err := calc.Calculate(temp, rh)
			if err != nil {
				p.errorf("%s (%g°C, %g%%): %v", calc.Strategy(), temp, rh, err)
				return
			}
			if res.AbsoluteHumidity <= prev {
				p.errorf("%s at %g%%: temperature %g°C gives %g, not above %g",
					calc.Strategy(), rh, temp, res.AbsoluteHumidity, prev)
			}
			prev = res.AbsoluteHumidity
		}
	}
}

func checkZeroHumidity(p *phase, calc psychro.Calculator) {
	for _, temp := range []float64{-10, 0, 25, 40} {
		res, err := calc.Calculate(temp, 0)
		if err != nil {
			p.errorf("%s (%g°C, 0%%): %v", calc.Strategy(), temp, err)
			continue
		}
		if res.AbsoluteHumidity != 0 {
			p.errorf("%s (%g°C, 0%%): expected 0, got %g", calc.Strategy(), temp, res.AbsoluteHumidity)
		}
	}
}

func checkSupercooled(p *phase, calc psychro.Calculator) {
	for _, temp := range []float64{-30, -20, -5} {
		res, err := calc.Calculate(temp, 50)
		if err != nil {
			p.errorf("%s (%g°C, 50%%): %v", calc.Strategy(), temp, err)
			continue
		}
		if res.AbsoluteHumidity <= 0 {
			p.errorf("%s (%g°C, 50%%): expected positive, got %g", calc.Strategy(), temp, res.AbsoluteHumidity)
		}
	}
}

// ── Phase 4: Input Guards ──
// Invalid inputs must come back as typed errors, not numbers.

func validateInputGuards(magnus, ashrae psychro.Calculator) *phase {
	p := &phase{name: "Phase 4: Input Guards"}

	for _, calc := range []psychro.Calculator{magnus, ashrae} {
		checkRejected(p, calc, 25, -0.1, psychro.ErrHumidityRange)
		checkRejected(p, calc, 25, 100.1, psychro.ErrHumidityRange)
		checkRejected(p, calc, 25, math.NaN(), psychro.ErrHumidityRange)
		checkRejected(p, calc, -273.15, 50, psychro.ErrTemperature)
		checkRejected(p, calc, -300, 50, psychro.ErrTemperature)
		checkRejected(p, calc, math.NaN(), 50, psychro.ErrTemperature)
		checkRejected(p, calc, math.Inf(1), 50, psychro.ErrTemperature)
	}

	// The -243.5°C pole belongs to the Magnus formula alone.
	checkRejected(p, magnus, -243.5, 50, psychro.ErrSingularity)
	checkRejected(p, magnus, -243.5001, 50, psychro.ErrSingularity)
	if res, err := ashrae.Calculate(-243.5, 50); err != nil {
		p.errorf("ashrae (-243.5°C, 50%%): unexpected error: %v", err)
	} else if res.AbsoluteHumidity != 0 {
		p.errorf("ashrae (-243.5°C, 50%%): expected 0, got %g", res.AbsoluteHumidity)
	}

	// Boiling-range humidity pushes vapor pressure past standard pressure.
	checkRejected(p, ashrae, 100, 100, psychro.ErrSingularity)
	checkRejected(p, ashrae, 120, 100, psychro.ErrSingularity)
	if _, err := ashrae.Calculate(120, 10); err != nil {
		p.errorf("ashrae (120°C, 10%%): unexpected error: %v", err)
	}

	return p
}

func checkRejected(p *phase, calc psychro.Calculator, temperatureC, humidityPct float64, want error) {
	_, err := calc.Calculate(temperatureC, humidityPct)
	if err == nil {
		p.errorf("%s (%g°C, %g%%): expected rejection, got a result",
			calc.Strategy(), temperatureC, humidityPct)
		return
	}
	if !errors.Is(err, want) {
		p.errorf("%s (%g°C, %g%%): wrong error class: %v",
			calc.Strategy(), temperatureC, humidityPct, err)
	}
}

// ── Phase 5: Fixture Integrity ──
// Re-runs the enrichment on the raw fixture and compares with the enriched
// fixture field by field.

func validateFixtureIntegrity(raw []reading.SensorReading, enriched []reading.EnrichedReading, calc psychro.Calculator) *phase {
	p := &phase{name: "Phase 5: Fixture Integrity"}

	if len(raw) != len(enriched) {
		p.errorf("count: %d raw readings, %d enriched", len(raw), len(enriched))
	}

	byID := map[string]*reading.EnrichedReading{}
	for i := range enriched {
		if enriched[i].ID == "" {
			p.errorf("enriched record %d: missing ID", i)
			continue
		}
		if _, exists := byID[enriched[i].ID]; exists {
			p.errorf("enriched record %d: duplicate ID %s", i, enriched[i].ID)
			continue
		}
		byID[enriched[i].ID] = &enriched[i]
	}

	for i := range raw {
		expected, err := enrichReading(raw[i], calc)
		if err != nil {
			p.errorf("raw record %d: %v", i, err)
			continue
		}
		got, ok := byID[expected.ID]
		if !ok {
			p.errorf("raw record %d (%s): ID %q not found in enriched fixture", i, raw[i].StationID, expected.ID)
			continue
		}
		compareReadings(p, expected, got)
	}

	return p
}

// enrichReading re-runs the enrichment on a raw fixture reading, transport
// envelope included.
func enrichReading(r reading.SensorReading, calc psychro.Calculator) (reading.EnrichedReading, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return reading.EnrichedReading{}, fmt.Errorf("marshal error: %w", err)
	}
	parsed, err := reading.ParseSensorReading(reading.RawMessage{
		Value:     value,
		Timestamp: r.ObservedAt,
	})
	if err != nil {
		return reading.EnrichedReading{}, fmt.Errorf("parse error: %w", err)
	}
	return reading.Enrich(parsed, calc)
}

// compareReadings checks that an enriched fixture record matches the
// freshly enriched reading.
func compareReadings(p *phase, expected reading.EnrichedReading, got *reading.EnrichedReading) {
	id := expected.ID

	if got.StationID != expected.StationID {
		p.errorf("ID %s: station_id: expected %q, got %q", id, expected.StationID, got.StationID)
	}
	if !floatEq(got.TemperatureC, expected.TemperatureC) {
		p.errorf("ID %s: temperature_c: expected %g, got %g", id, expected.TemperatureC, got.TemperatureC)
	}
	if !floatEq(got.HumidityPct, expected.HumidityPct) {
		p.errorf("ID %s: humidity_pct: expected %g, got %g", id, expected.HumidityPct, got.HumidityPct)
	}
	if !floatEq(got.AbsoluteHumidity, expected.AbsoluteHumidity) {
		p.errorf("ID %s: absolute_humidity: expected %g, got %g", id, expected.AbsoluteHumidity, got.AbsoluteHumidity)
	}
	if got.Unit != expected.Unit {
		p.errorf("ID %s: unit: expected %q, got %q", id, expected.Unit, got.Unit)
	}
	if got.Strategy != expected.Strategy {
		p.errorf("ID %s: strategy: expected %q, got %q", id, expected.Strategy, got.Strategy)
	}
	if !got.ObservedAt.Equal(expected.ObservedAt) {
		p.errorf("ID %s: observed_at: expected %s, got %s",
			id, expected.ObservedAt.Format(time.RFC3339), got.ObservedAt.Format(time.RFC3339))
	}
	if !got.TimeBucket.Equal(expected.TimeBucket) {
		p.errorf("ID %s: time_bucket: expected %s, got %s",
			id, expected.TimeBucket.Format(time.RFC3339), got.TimeBucket.Format(time.RFC3339))
	}
	if !got.ProcessedAt.Equal(expected.ProcessedAt) {
		p.errorf("ID %s: processed_at: expected %s, got %s",
			id, expected.ProcessedAt.Format(time.RFC3339), got.ProcessedAt.Format(time.RFC3339))
	}
}

// ── Phase 6: Schema Alignment ──
// Validates that enriched fixture values satisfy the wire schema the API
// and sink consumers rely on.

var schemaStrategies = map[string]bool{"magnus": true, "ashrae": true}

func validateSchemaAlignment(enriched []reading.EnrichedReading) *phase {
	p := &phase{name: "Phase 6: Schema Alignment"}
	for i := range enriched {
		checkSchemaRecord(p, i, &enriched[i])
	}
	return p
}

func checkSchemaRecord(p *phase, i int, e *reading.EnrichedReading) {
	pf := func(format string, args ...any) {
		p.errorf("record %d (ID %s): "+format, append([]any{i, e.ID}, args...)...)
	}

	if e.ID == "" {
		pf("id is empty")
	} else if e.StationID != "" && !strings.HasPrefix(e.ID, e.StationID+"-") {
		pf("id %q doesn't start with station prefix %q-", e.ID, e.StationID)
	}
	if e.StationID == "" {
		pf("station_id is empty")
	}

	if e.HumidityPct < 0 || e.HumidityPct > 100 {
		pf("humidity_pct %g outside 0..100", e.HumidityPct)
	}
	if e.TemperatureC <= -273.15 {
		pf("temperature_c %g at or below absolute zero", e.TemperatureC)
	}
	if e.AbsoluteHumidity < 0 {
		pf("absolute_humidity %g is negative", e.AbsoluteHumidity)
	}
	if e.Unit != psychro.Unit {
		pf("unit %q is not %q", e.Unit, psychro.Unit)
	}
	if !schemaStrategies[e.Strategy] {
		pf("strategy %q not in {magnus, ashrae}", e.Strategy)
	}
	if e.HumidityPct == 0 && e.AbsoluteHumidity != 0 {
		pf("humidity_pct is 0 but absolute_humidity is %g", e.AbsoluteHumidity)
	}
	if e.HumidityPct > 0 && e.AbsoluteHumidity == 0 {
		pf("humidity_pct is %g but absolute_humidity is 0", e.HumidityPct)
	}

	if e.ObservedAt.IsZero() {
		pf("observed_at is zero")
	}
	if e.TimeBucket.IsZero() {
		pf("time_bucket is zero")
	} else if !e.TimeBucket.Equal(e.ObservedAt.UTC().Truncate(time.Hour)) {
		pf("time_bucket %s is not observed_at truncated to the hour", e.TimeBucket.Format(time.RFC3339))
	}
	if e.ProcessedAt.IsZero() {
		pf("processed_at is zero")
	}
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
