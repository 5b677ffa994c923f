package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/web"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := &web.IndexData{Examples: web.DefaultExamples()}

	q := r.URL.Query()
	data.Form = web.FormValues{
		Temperature: q.Get("temperature"),
		Humidity:    q.Get("humidity"),
		Strategy:    q.Get("strategy"),
	}

	status := http.StatusOK
	// Quick example links land here with values in the query string.
	if data.Form.Temperature != "" && data.Form.Humidity != "" {
		status = s.fillResult(data)
	}

	s.renderPage(w, status, func(w io.Writer) error { return s.renderer.Index(w, data) })
}

func (s *Server) handleIndexSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "could not parse form", http.StatusBadRequest)
		return
	}

	data := &web.IndexData{
		Examples: web.DefaultExamples(),
		Form: web.FormValues{
			Temperature: r.PostFormValue("temperature"),
			Humidity:    r.PostFormValue("humidity"),
			Strategy:    r.PostFormValue("strategy"),
		},
	}

	status := s.fillResult(data)
	s.renderPage(w, status, func(w io.Writer) error { return s.renderer.Index(w, data) })
}

func (s *Server) handleAbout(w http.ResponseWriter, _ *http.Request) {
	data := &web.AboutData{Version: s.version, Strategy: string(s.calc.Strategy())}
	s.renderPage(w, http.StatusOK, func(w io.Writer) error { return s.renderer.About(w, data) })
}

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, s.renderer.Docs)
}

// fillResult computes the submitted form values into data and returns the
// HTTP status for the rendered page.
func (s *Server) fillResult(data *web.IndexData) int {
	temp, err := strconv.ParseFloat(strings.TrimSpace(data.Form.Temperature), 64)
	if err != nil {
		data.Error = "temperature must be a number"
		return http.StatusUnprocessableEntity
	}
	humidity, err := strconv.ParseFloat(strings.TrimSpace(data.Form.Humidity), 64)
	if err != nil {
		data.Error = "relative humidity must be a number"
		return http.StatusUnprocessableEntity
	}

	calc := s.calc
	if data.Form.Strategy != "" && data.Form.Strategy != string(s.calc.Strategy()) {
		strategy, err := psychro.ParseStrategy(data.Form.Strategy)
		if err != nil {
			data.Error = err.Error()
			return http.StatusUnprocessableEntity
		}
		if calc, err = psychro.New(strategy); err != nil {
			data.Error = err.Error()
			return http.StatusUnprocessableEntity
		}
	}

	result, err := calc.Calculate(temp, humidity)
	s.metrics.CalculationsTotal.WithLabelValues(string(calc.Strategy()), outcomeLabel(err)).Inc()
	if err != nil {
		if !isInputError(err) {
			s.logger.Error("calculation failed", "error", err)
			data.Error = "internal error"
			return http.StatusInternalServerError
		}
		data.Error = err.Error()
		return http.StatusUnprocessableEntity
	}

	data.Result = &result
	return http.StatusOK
}

// renderPage buffers the render; the status line goes out only after the
// template executed cleanly.
func (s *Server) renderPage(w http.ResponseWriter, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write page failed", "error", err)
	}
}
