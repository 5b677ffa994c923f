package psychro

import (
	"fmt"
	"math"
)

// Magnus formula coefficients, saturation over liquid water in hPa.
const (
	magnusA = 6.112 // hPa
	magnusB = 17.67
	magnusC = 243.5 // °C
)

type magnusCalculator struct{}

func (magnusCalculator) Strategy() Strategy {
	return StrategyMagnus
}

// Calculate computes absolute humidity with the Magnus approximation. The
// formula has a pole where the exponent denominator T+243.5 reaches zero,
// which is inside the valid temperature range, so that input is rejected
// rather than clamped.
func (magnusCalculator) Calculate(temperatureC, humidityPct float64) (Result, error) {
	if err := validateInput(temperatureC, humidityPct); err != nil {
		return Result{}, err
	}
	if temperatureC+magnusC == 0 {
		return Result{}, fmt.Errorf("%w: magnus formula is undefined at %g°C", ErrSingularity, -magnusC)
	}

	es := magnusA * math.Exp(magnusB*temperatureC/(temperatureC+magnusC))
	e := humidityPct / 100 * es

	// Vapor pressure in Pa, temperature in kelvin, result in g/m³.
	pa := e * 100
	kelvin := temperatureC - absoluteZeroC
	ah := pa * waterMolarMass / (gasConstant * kelvin) * 1000

	// The exponent explodes on the cold side of the pole.
	if math.IsInf(ah, 0) || math.IsNaN(ah) {
		return Result{}, fmt.Errorf("%w: result overflows near %g°C", ErrSingularity, -magnusC)
	}

	return Result{
		AbsoluteHumidity: round2(ah),
		TemperatureC:     temperatureC,
		HumidityPct:      humidityPct,
		Unit:             Unit,
	}, nil
}
