package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"sensorpanorama/internal/config"
	"sensorpanorama/internal/modules/panorama/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/relvacode/iso8601"
)

// Telemetry is one live reading published by a sensor. Timestamps without
// a zone are read in the configured location, like the log file.
type Telemetry struct {
	Timestamp   string   `json:"timestamp"`
	Temperature *float64 `json:"temperature_c"`
	Humidity    *float64 `json:"humidity_pct"`
	Pressure    *float64 `json:"pressure_hpa"`
}

// ReadingHandler receives every valid telemetry message.
type ReadingHandler func(types.Reading)

var errSubscriberStopped = errors.New("subscriber stopped")

type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	clientID  string
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	handler ReadingHandler
}

func NewSubscriber(cfg config.Config, handler ReadingHandler, logger *slog.Logger) *Subscriber {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = "sensorpanorama-" + uuid.NewString()
	}
	s := &Subscriber{
		cfg:      cfg,
		clientID: clientID,
		logger:   logger.With("component", "mqtt"),
		stopCh:   make(chan struct{}),
		handler:  handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Subscriptions do not survive a clean-session reconnect, so they are
	// renewed on every connect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.setConnected(true)
		s.logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort, "client_id", clientID)
		if err := s.subscribe(c); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		s.logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// ClientID is the identifier presented to the broker.
func (s *Subscriber) ClientID() string {
	return s.clientID
}

// Connect blocks until the broker accepted the connection, ctx ends or the
// subscriber is stopped.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errSubscriberStopped
	default:
	}
	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return errSubscriberStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe(c mqtt.Client) error {
	const qos = byte(1)
	token := c.Subscribe(s.cfg.MQTTTopic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.cfg.MQTTTopic)
	}
	if err := token.Error(); err != nil {
		return err
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.cfg.MQTTTopic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	r, err := DecodeTelemetry(payload, s.cfg.Location)
	if err != nil {
		s.logger.Warn("dropping telemetry message", "topic", topic, "error", err, "payload", string(payload))
		return
	}
	if s.handler != nil {
		s.handler(r)
	}
	s.logger.Debug("telemetry appended", "topic", topic, "timestamp", r.Timestamp)
}

// DecodeTelemetry parses and validates one message. All three measurements
// and the timestamp are required.
func DecodeTelemetry(payload []byte, loc *time.Location) (types.Reading, error) {
	var t Telemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		return types.Reading{}, fmt.Errorf("decode telemetry: %w", err)
	}
	if t.Timestamp == "" {
		return types.Reading{}, errors.New("timestamp is required")
	}
	if loc == nil {
		loc = time.Local
	}
	ts, err := iso8601.ParseInLocation([]byte(t.Timestamp), loc)
	if err != nil {
		return types.Reading{}, fmt.Errorf("timestamp %q: %w", t.Timestamp, err)
	}

	fields := []struct {
		name string
		v    *float64
	}{
		{"temperature_c", t.Temperature},
		{"humidity_pct", t.Humidity},
		{"pressure_hpa", t.Pressure},
	}
	for _, f := range fields {
		if f.v == nil {
			return types.Reading{}, fmt.Errorf("%s is required", f.name)
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return types.Reading{}, fmt.Errorf("%s is not finite", f.name)
		}
	}

	return types.Reading{
		Timestamp:   ts.In(loc),
		Temperature: *t.Temperature,
		Humidity:    *t.Humidity,
		Pressure:    *t.Pressure,
	}, nil
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber. Safe to call more than once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.IsConnected() {
		s.client.Unsubscribe(s.cfg.MQTTTopic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
