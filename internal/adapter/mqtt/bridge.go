package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hygrolab/humidity-service/internal/config"
	"github.com/hygrolab/humidity-service/internal/observability"
	"github.com/hygrolab/humidity-service/internal/reading"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Enricher turns a raw sensor payload into an enriched reading.
// Satisfied by pipeline.ReadingEnricher.
type Enricher interface {
	Enrich(ctx context.Context, raw reading.RawMessage) (reading.EnrichedReading, error)
}

// Bridge subscribes to raw sensor readings on an MQTT broker, enriches
// them through the same path the Kafka pipeline uses, and republishes
// the result to the enriched topic.
type Bridge struct {
	client   mqtt.Client
	cfg      *config.Config
	enricher Enricher
	logger   *slog.Logger
	metrics  *observability.Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBridge configures the MQTT client without connecting. Call Connect
// to establish the session.
func NewBridge(cfg *config.Config, enricher Enricher, logger *slog.Logger, metrics *observability.Metrics) *Bridge {
	b := &Bridge{
		cfg:      cfg,
		enricher: enricher,
		logger:   logger,
		metrics:  metrics,
		stopCh:   make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		b.metrics.MQTTConnected.Set(1)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
		// Clean sessions drop subscriptions, so every (re)connect
		// subscribes again.
		if err := b.subscribe(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "error", err)
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.metrics.MQTTConnected.Set(0)
		logger.Warn("mqtt connection lost", "error", err)
	})

	b.client = mqtt.NewClient(opts)
	return b
}

// Connect establishes the connection to the MQTT broker. It waits for the
// initial connection and respects ctx and Close().
func (b *Bridge) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-b.stopCh:
		return fmt.Errorf("bridge stopped")
	default:
	}

	// Fast path.
	if b.client.IsConnectionOpen() {
		return nil
	}

	// Start connect attempt. With ConnectRetry(true), it may keep retrying
	// internally.
	token := b.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// The OnConnect handler takes care of subscribing.
			return nil
		}

		select {
		case <-ctx.Done():
			b.client.Disconnect(0)
			return ctx.Err()
		case <-b.stopCh:
			b.client.Disconnect(0)
			return fmt.Errorf("bridge stopped")
		default:
		}
	}
}

// CheckReadiness reports whether the bridge holds an open broker connection.
func (b *Bridge) CheckReadiness(_ context.Context) error {
	if !b.client.IsConnectionOpen() {
		return fmt.Errorf("mqtt connection is not open")
	}
	return nil
}

func (b *Bridge) subscribe() error {
	qos := byte(1) // At least once delivery

	token := b.client.Subscribe(b.cfg.MQTTTopic, qos, b.handleMessage)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", b.cfg.MQTTTopic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", b.cfg.MQTTTopic, token.Error())
	}

	b.logger.Info("subscribed to mqtt topic", "topic", b.cfg.MQTTTopic, "qos", qos)
	return nil
}

// handleMessage runs on the paho callback goroutine, so it keeps its own
// deadline instead of borrowing one from a caller.
func (b *Bridge) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	b.metrics.MQTTMessagesReceived.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := b.process(ctx, msg.Topic(), msg.Payload())
	if err != nil {
		b.metrics.EnrichErrors.Inc()
		b.logger.Warn("mqtt reading rejected", "topic", msg.Topic(), "error", err)
		return
	}

	token := b.client.Publish(b.cfg.MQTTSinkTopic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		b.logger.Error("mqtt publish timeout", "topic", b.cfg.MQTTSinkTopic)
		return
	}
	if token.Error() != nil {
		b.logger.Error("mqtt publish failed", "topic", b.cfg.MQTTSinkTopic, "error", token.Error())
		return
	}

	b.metrics.MQTTMessagesPublished.Inc()
	b.logger.Debug("republished enriched reading", "topic", b.cfg.MQTTSinkTopic)
}

// process runs one reading through the enrichment path and returns the
// payload to republish. Arrival time stands in for the broker timestamp
// MQTT does not carry.
func (b *Bridge) process(ctx context.Context, topic string, payload []byte) ([]byte, error) {
	raw := reading.RawMessage{
		Value:     payload,
		Topic:     topic,
		Timestamp: time.Now(),
	}

	enriched, err := b.enricher.Enrich(ctx, raw)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(enriched)
	if err != nil {
		return nil, fmt.Errorf("serialize enriched reading: %w", err)
	}
	return data, nil
}

// Close stops the bridge and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (b *Bridge) Close() {
	// Signal shutdown once (unblocks any Connect loops).
	b.stopOnce.Do(func() { close(b.stopCh) })

	// Unsubscribe before disconnecting.
	if b.client != nil && b.client.IsConnectionOpen() {
		token := b.client.Unsubscribe(b.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}

	// Paho Disconnect quiesces in-flight work for the given ms.
	if b.client != nil {
		b.client.Disconnect(250)
	}

	b.metrics.MQTTConnected.Set(0)
	b.logger.Info("mqtt bridge disconnected")
}
