package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// humidity service.
type Metrics struct {
	// Calculation metrics, labeled by strategy and outcome
	// ({ok,invalid_humidity,invalid_temperature,singular}).
	CalculationsTotal *prometheus.CounterVec

	// Stream enrichment metrics.
	ReadingsConsumed  prometheus.Counter
	ReadingsPublished prometheus.Counter
	EnrichErrors      prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// MQTT bridge metrics.
	MQTTMessagesReceived  prometheus.Counter
	MQTTMessagesPublished prometheus.Counter
	MQTTConnected         prometheus.Gauge

	// Latest readings view.
	LatestReadingsTracked prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "humidity",
			Name:      "calculations_total",
			Help:      "Absolute humidity calculations by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "humidity",
			Name:      "readings_consumed_total",
			Help:      "Total sensor readings read from the source topic.",
		}),
		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "humidity",
			Name:      "readings_published_total",
			Help:      "Total enriched readings written to the sink topic.",
		}),
		EnrichErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "humidity",
			Name:      "enrich_errors_total",
			Help:      "Total readings dropped because enrichment failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "humidity",
			Name:      "pipeline_running",
			Help:      "1 when the stream pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "humidity",
			Name:      "batch_size",
			Help:      "Number of readings per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "humidity",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-enrich-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		MQTTMessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "humidity",
			Name:      "mqtt_messages_received_total",
			Help:      "Total sensor readings received over MQTT.",
		}),
		MQTTMessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "humidity",
			Name:      "mqtt_messages_published_total",
			Help:      "Total enriched readings republished over MQTT.",
		}),
		MQTTConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "humidity",
			Name:      "mqtt_connected",
			Help:      "1 while the MQTT bridge holds a broker connection.",
		}),
		LatestReadingsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "humidity",
			Name:      "latest_readings_tracked",
			Help:      "Stations currently held in the latest readings view.",
		}),
	}

	prometheus.MustRegister(
		m.CalculationsTotal,
		m.ReadingsConsumed,
		m.ReadingsPublished,
		m.EnrichErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.MQTTMessagesReceived,
		m.MQTTMessagesPublished,
		m.MQTTConnected,
		m.LatestReadingsTracked,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CalculationsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "humidity", Name: "calculations_total"}, []string{"strategy", "outcome"}),
		ReadingsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "humidity", Name: "readings_consumed_total"}),
		ReadingsPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "humidity", Name: "readings_published_total"}),
		EnrichErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "humidity", Name: "enrich_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "humidity", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "humidity", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "humidity", Name: "batch_processing_duration_seconds"}),
		MQTTMessagesReceived:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "humidity", Name: "mqtt_messages_received_total"}),
		MQTTMessagesPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "humidity", Name: "mqtt_messages_published_total"}),
		MQTTConnected:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "humidity", Name: "mqtt_connected"}),
		LatestReadingsTracked:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "humidity", Name: "latest_readings_tracked"}),
	}
}
