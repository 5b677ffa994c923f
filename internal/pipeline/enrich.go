package pipeline

import (
	"context"

	"github.com/hygrolab/humidity-service/internal/observability"
	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
)

// ReadingEnricher implements Enricher by parsing raw messages and attaching
// the computed absolute humidity. Enriched readings also feed the latest
// readings view when one is wired in.
type ReadingEnricher struct {
	calc    psychro.Calculator
	latest  *reading.LatestStore
	metrics *observability.Metrics
}

// NewEnricher creates a ReadingEnricher. Pass a nil latest store to skip
// the latest readings view.
func NewEnricher(calc psychro.Calculator, latest *reading.LatestStore, metrics *observability.Metrics) *ReadingEnricher {
	return &ReadingEnricher{
		calc:    calc,
		latest:  latest,
		metrics: metrics,
	}
}

func (e *ReadingEnricher) Enrich(_ context.Context, raw reading.RawMessage) (reading.EnrichedReading, error) {
	r, err := reading.ParseSensorReading(raw)
	if err != nil {
		return reading.EnrichedReading{}, err
	}

	enriched, err := reading.Enrich(r, e.calc)
	if err != nil {
		return reading.EnrichedReading{}, err
	}

	if e.latest != nil {
		e.latest.Put(enriched)
		e.metrics.LatestReadingsTracked.Set(float64(e.latest.Len()))
	}

	return enriched, nil
}
