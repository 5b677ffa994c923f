package psychro

import (
	"errors"
	"fmt"
	"math"
)

// Unit is the unit attached to every Result.
const Unit = "g/m³"

// Physical constants shared by both strategies.
const (
	absoluteZeroC  = -273.15 // °C
	waterMolarMass = 18.016  // g/mol
	gasConstant    = 8314.5  // J/(kmol·K)
)

// Sentinel errors reported by Calculate. Wrapped values carry the offending
// input; match with errors.Is.
var (
	ErrHumidityRange = errors.New("relative humidity out of range")
	ErrTemperature   = errors.New("invalid temperature")
	ErrSingularity   = errors.New("formula singularity")
)

// Strategy selects the saturation model backing a Calculator.
type Strategy string

const (
	// StrategyMagnus is the closed-form Magnus approximation, the default.
	StrategyMagnus Strategy = "magnus"
	// StrategyASHRAE computes through ASHRAE psychrometric relations.
	StrategyASHRAE Strategy = "ashrae"
)

// ParseStrategy maps a configuration string onto a known Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyMagnus:
		return StrategyMagnus, nil
	case StrategyASHRAE:
		return StrategyASHRAE, nil
	default:
		return "", fmt.Errorf("unknown calculation strategy %q (want %q or %q)", s, StrategyMagnus, StrategyASHRAE)
	}
}

// Result is one absolute humidity computation. AbsoluteHumidity is rounded
// to two decimal places and Unit is always the package Unit constant.
type Result struct {
	AbsoluteHumidity float64 `json:"absolute_humidity"`
	TemperatureC     float64 `json:"temperature"`
	HumidityPct      float64 `json:"humidity"`
	Unit             string  `json:"unit"`
}

// Calculator computes absolute humidity from air temperature in °C and
// relative humidity in percent.
type Calculator interface {
	Calculate(temperatureC, humidityPct float64) (Result, error)
	Strategy() Strategy
}

// New returns the Calculator for the given strategy.
func New(s Strategy) (Calculator, error) {
	switch s {
	case StrategyMagnus:
		return magnusCalculator{}, nil
	case StrategyASHRAE:
		return ashraeCalculator{}, nil
	default:
		return nil, fmt.Errorf("unknown calculation strategy %q", s)
	}
}

// validateInput applies the input checks shared by both strategies.
// Humidity is checked first so a request that is wrong on both axes
// reports the humidity error.
func validateInput(temperatureC, humidityPct float64) error {
	if math.IsNaN(humidityPct) || humidityPct < 0 || humidityPct > 100 {
		return fmt.Errorf("%w: %v (want 0..100)", ErrHumidityRange, humidityPct)
	}
	if math.IsNaN(temperatureC) || math.IsInf(temperatureC, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrTemperature, temperatureC)
	}
	if temperatureC <= absoluteZeroC {
		return fmt.Errorf("%w: %v°C is at or below absolute zero", ErrTemperature, temperatureC)
	}
	return nil
}

// round2 rounds to the service-wide two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
