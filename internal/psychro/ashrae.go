package psychro

import (
	"fmt"
	"math"
)

// ASHRAE Handbook of Fundamentals constants, SI edition.
const (
	standardPressurePa = 101325.0

	// Hyland-Wexler saturation correlation over liquid water, T in kelvin.
	satC1 = -5.8002206e3
	satC2 = 1.3914993
	satC3 = -4.8640239e-2
	satC4 = 4.1764768e-5
	satC5 = -1.4452093e-8
	satC6 = 6.5459673

	// Humidity ratio and moist air specific volume factors.
	molarMassRatio    = 0.621945 // water vapor over dry air
	invMolarMassRatio = 1.607858
	dryAirR           = 0.287042 // kJ/(kg·K)
)

type ashraeCalculator struct{}

func (ashraeCalculator) Strategy() Strategy {
	return StrategyASHRAE
}

// Calculate computes absolute humidity through the ASHRAE relations:
// saturation pressure from the Hyland-Wexler correlation, humidity ratio at
// standard sea-level pressure, then mass per volume via the ideal-gas
// specific volume of the moist air mixture.
func (ashraeCalculator) Calculate(temperatureC, humidityPct float64) (Result, error) {
	if err := validateInput(temperatureC, humidityPct); err != nil {
		return Result{}, err
	}

	pws := saturationPressure(temperatureC)
	pw := humidityPct / 100 * pws
	if pw >= standardPressurePa {
		// Above roughly 100°C at high humidity the vapor pressure exceeds
		// the total pressure and the humidity ratio loses meaning.
		return Result{}, fmt.Errorf("%w: vapor pressure %.0f Pa at %g°C exceeds standard pressure", ErrSingularity, pw, temperatureC)
	}

	w := molarMassRatio * pw / (standardPressurePa - pw)

	// Specific volume of the mixture per kg of dry air, m³/kg, with the
	// pressure term in kPa.
	kelvin := temperatureC - absoluteZeroC
	v := dryAirR * kelvin * (1 + invMolarMassRatio*w) / (standardPressurePa / 1000)

	ah := w / v * 1000

	return Result{
		AbsoluteHumidity: round2(ah),
		TemperatureC:     temperatureC,
		HumidityPct:      humidityPct,
		Unit:             Unit,
	}, nil
}

// saturationPressure returns the water vapor saturation pressure in Pa,
// evaluated over liquid water at all temperatures.
func saturationPressure(temperatureC float64) float64 {
	t := temperatureC - absoluteZeroC
	ln := satC1/t + satC2 + t*(satC3+t*(satC4+t*satC5)) + satC6*math.Log(t)
	return math.Exp(ln)
}
