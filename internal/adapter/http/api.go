package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
)

// calculateRequest uses pointers to tell a missing field from a zero value.
type calculateRequest struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "could not read request body"})
		return
	}

	var req calculateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "request body must be a JSON object with numeric temperature and humidity",
		})
		return
	}
	if req.Temperature == nil || req.Humidity == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "temperature and humidity are required",
		})
		return
	}

	result, err := s.calc.Calculate(*req.Temperature, *req.Humidity)
	s.metrics.CalculationsTotal.WithLabelValues(string(s.calc.Strategy()), outcomeLabel(err)).Inc()
	if err != nil {
		if !isInputError(err) {
			s.logger.Error("calculation failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// isInputError reports whether a calculation error was caused by the
// submitted values rather than by the service.
func isInputError(err error) bool {
	return errors.Is(err, psychro.ErrHumidityRange) ||
		errors.Is(err, psychro.ErrTemperature) ||
		errors.Is(err, psychro.ErrSingularity)
}

// outcomeLabel maps a calculation error onto the metric outcome label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, psychro.ErrHumidityRange):
		return "invalid_humidity"
	case errors.Is(err, psychro.ErrTemperature):
		return "invalid_temperature"
	case errors.Is(err, psychro.ErrSingularity):
		return "singular"
	default:
		return "error"
	}
}

type limitsInfo struct {
	TemperatureMinC float64 `json:"temperature_min_c"`
	HumidityMinPct  float64 `json:"humidity_min_pct"`
	HumidityMaxPct  float64 `json:"humidity_max_pct"`
}

type formulasInfo struct {
	SaturationPressure string `json:"saturation_pressure"`
	VaporPressure      string `json:"vapor_pressure"`
	AbsoluteHumidity   string `json:"absolute_humidity"`
}

type infoResponse struct {
	Service   string             `json:"service"`
	Version   string             `json:"version"`
	Strategy  string             `json:"strategy"`
	Unit      string             `json:"unit"`
	Precision string             `json:"precision"`
	Limits    limitsInfo         `json:"limits"`
	Formulas  formulasInfo       `json:"formulas"`
	Constants map[string]float64 `json:"constants"`
	Endpoints map[string]string  `json:"endpoints"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Service:   "humidity-service",
		Version:   s.version,
		Strategy:  string(s.calc.Strategy()),
		Unit:      psychro.Unit,
		Precision: "2 decimal places",
		Limits: limitsInfo{
			TemperatureMinC: -273.15,
			HumidityMinPct:  0,
			HumidityMaxPct:  100,
		},
		Formulas: formulasInfo{
			SaturationPressure: "es = 6.112 * exp(17.67 * T / (T + 243.5))",
			VaporPressure:      "e = es * RH / 100",
			AbsoluteHumidity:   "ah = e * 100 * 18.016 / (8314.5 * (T + 273.15)) * 1000",
		},
		Constants: map[string]float64{
			"magnus_a":         6.112,
			"magnus_b":         17.67,
			"magnus_c":         243.5,
			"water_molar_mass": 18.016,
			"gas_constant":     8314.5,
		},
		Endpoints: map[string]string{
			"POST /api/calculate":      "compute absolute humidity for one reading",
			"GET /api/health":          "liveness probe",
			"GET /api/info":            "this document",
			"GET /api/readings/latest": "latest enriched reading per station",
			"GET /openapi.json":        "machine-readable API description",
			"GET /metrics":             "prometheus metrics",
		},
	})
}

type latestReadingsResponse struct {
	Readings []reading.EnrichedReading `json:"readings"`
	Count    int                       `json:"count"`
}

func (s *Server) handleLatestReadings(w http.ResponseWriter, _ *http.Request) {
	readings := []reading.EnrichedReading{}
	if s.latest != nil {
		readings = s.latest.Snapshot()
	}
	writeJSON(w, http.StatusOK, latestReadingsResponse{Readings: readings, Count: len(readings)})
}
