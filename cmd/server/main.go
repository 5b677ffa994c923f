// Command server runs the absolute humidity service: the JSON API and web
// calculator, plus the optional Kafka enrichment pipeline and MQTT bridge.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/hygrolab/humidity-service/internal/adapter/http"
	kafkaadapter "github.com/hygrolab/humidity-service/internal/adapter/kafka"
	mqttadapter "github.com/hygrolab/humidity-service/internal/adapter/mqtt"
	"github.com/hygrolab/humidity-service/internal/config"
	"github.com/hygrolab/humidity-service/internal/observability"
	"github.com/hygrolab/humidity-service/internal/pipeline"
	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
	"github.com/hygrolab/humidity-service/internal/web"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	strategy, err := psychro.ParseStrategy(cfg.Strategy)
	if err != nil {
		logger.Error("invalid calculation strategy", "error", err)
		os.Exit(1)
	}
	calc, err := psychro.New(strategy)
	if err != nil {
		logger.Error("failed to build calculator", "error", err)
		os.Exit(1)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Error("failed to parse page templates", "error", err)
		os.Exit(1)
	}

	latest := reading.NewLatestStore(cfg.LatestCacheSize)
	enricher := pipeline.NewEnricher(calc, latest, metrics)

	var checkers httpadapter.MultiChecker

	// Kafka pipeline (feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED).
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, enricher, writer, logger, metrics, cfg.BatchSize)
		checkers = append(checkers, p)
		logger.Info("kafka pipeline enabled",
			"brokers", cfg.KafkaBrokers,
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
		)
	} else {
		logger.Info("kafka pipeline disabled")
	}

	// MQTT bridge (feature-flagged via MQTT_BROKER / MQTT_ENABLED).
	var bridge *mqttadapter.Bridge
	if cfg.MQTTEnabled {
		bridge = mqttadapter.NewBridge(cfg, enricher, logger, metrics)
		checkers = append(checkers, bridge)
		logger.Info("mqtt bridge enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
	} else {
		logger.Info("mqtt bridge disabled")
	}

	// With no streaming inputs the server is ready as soon as it listens.
	var ready httpadapter.ReadinessChecker
	if len(checkers) > 0 {
		ready = checkers
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Calculator: calc,
		Latest:     latest,
		Renderer:   renderer,
		Ready:      ready,
		Logger:     logger,
		Metrics:    metrics,
		Version:    version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start enrichment pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	// Connect the MQTT bridge. The client retries in the background, so this
	// only returns early when the context is cancelled during connect.
	if bridge != nil {
		if err := bridge.Connect(ctx); err != nil {
			logger.Error("mqtt connect aborted", "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if bridge != nil {
		bridge.Close()
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
