// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// The Kafka stream and the MQTT bridge are optional: setting their broker
// address turns them on, and KAFKA_ENABLED / MQTT_ENABLED override that.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"       envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Strategy        string        `env:"CALC_STRATEGY"    envDefault:"magnus"`

	KafkaBrokers       []string      `env:"KAFKA_BROKERS"`
	KafkaSourceTopic   string        `env:"KAFKA_SOURCE_TOPIC"   envDefault:"sensor-readings"`
	KafkaSinkTopic     string        `env:"KAFKA_SINK_TOPIC"     envDefault:"enriched-readings"`
	KafkaGroupID       string        `env:"KAFKA_GROUP_ID"       envDefault:"humidity-service"`
	BatchSize          int           `env:"BATCH_SIZE"           envDefault:"50"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL" envDefault:"500ms"`

	MQTTBroker    string `env:"MQTT_BROKER"`
	MQTTTopic     string `env:"MQTT_TOPIC"      envDefault:"sensors/+/reading"`
	MQTTSinkTopic string `env:"MQTT_SINK_TOPIC" envDefault:"humidity/enriched"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID"  envDefault:"humidity-service"`

	LatestCacheSize int `env:"LATEST_CACHE_SIZE" envDefault:"1000"`

	// Derived in Load, not read from the environment directly.
	KafkaEnabled bool
	MQTTEnabled  bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first so local
// runs do not need exported variables; exported variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	cfg.MQTTEnabled = cfg.MQTTBroker != ""
	if v := os.Getenv("MQTT_ENABLED"); v != "" {
		cfg.MQTTEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := psychro.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("CALC_STRATEGY: %w", err)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be a positive duration")
	}
	if c.BatchSize < 1 || c.BatchSize > 1000 {
		return errors.New("BATCH_SIZE must be between 1 and 1000")
	}
	if c.BatchFlushInterval <= 0 {
		return errors.New("BATCH_FLUSH_INTERVAL must be a positive duration")
	}
	if c.LatestCacheSize < 1 {
		return errors.New("LATEST_CACHE_SIZE must be positive")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			return errors.New("MQTT_ENABLED is true but MQTT_BROKER is not set")
		}
		if c.MQTTTopic == "" {
			return errors.New("MQTT_TOPIC is required")
		}
		if c.MQTTSinkTopic == "" {
			return errors.New("MQTT_SINK_TOPIC is required")
		}
	}
	return nil
}
