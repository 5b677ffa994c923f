// Package psychro computes absolute humidity, the mass of water vapor per
// cubic meter of air, from air temperature and relative humidity.
//
// # Strategies
//
// Two interchangeable strategies implement the Calculator interface and are
// selected at construction:
//
//   - StrategyMagnus uses the Magnus approximation for saturation vapor
//     pressure. It is the closed-form default, accurate to a few percent
//     across everyday meteorological conditions:
//
//     es = 6.112 * exp((17.67 * T) / (T + 243.5))   [hPa]
//     e  = (RH / 100) * es
//     AH = (e_Pa * 18.016) / (8314.5 * T_K) * 1000  [g/m³]
//
//   - StrategyASHRAE uses the Hyland-Wexler saturation correlation and the
//     ASHRAE humidity-ratio relations at standard sea-level pressure
//     (101325 Pa). The humidity ratio is converted to mass per volume
//     through the ideal-gas specific volume of the moist air mixture. It
//     serves as the library-grade cross-check for the Magnus strategy.
//
// The strategies agree within 0.1 g/m³ between -20°C and 40°C over the
// full humidity range, drifting to roughly 0.3 g/m³ near 50°C saturation,
// which is the error of the Magnus fit itself.
//
// # Saturation Below Freezing
//
// Both strategies evaluate saturation over liquid water at all
// temperatures, including supercooled conditions below 0°C. Meteorological
// relative humidity is reported against water rather than ice, and the
// shared convention keeps the two strategies consistent with each other.
//
// # Units and Rounding
//
// Temperature is degrees Celsius, relative humidity is percent, and every
// result carries the fixed Unit string "g/m³". Results are rounded to two
// decimal places; intermediate values are never rounded.
//
// # Validation
//
// Inputs are checked before any formula runs. Relative humidity outside
// 0..100 reports ErrHumidityRange. Non-finite temperatures and
// temperatures at or below absolute zero (-273.15°C) report
// ErrTemperature. Inputs at a pole of the selected formula, such as the
// Magnus denominator zero at -243.5°C, report ErrSingularity. All three
// are sentinel errors and match with errors.Is.
package psychro
