// Package mqtt publishes substation telemetry (load snapshots and
// session lifecycle events) to an MQTT broker. Telemetry is optional;
// when disabled a NopPublisher is wired instead.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridwatt/evrouter/core/events"
	"github.com/gridwatt/evrouter/core/logger"
)

// Config defines the connection parameters for the telemetry publisher.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "evrouter/telemetry"
	}
	if c.ClientID == "" {
		c.ClientID = "evrouter-telemetry"
	}
}

// Validate checks mandatory fields when telemetry is enabled.
func (c Config) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("telemetry broker is required")
	}
	return nil
}

// TelemetryPublisher pushes substation telemetry to an external broker.
type TelemetryPublisher interface {
	PublishStatus(ev events.StatusEvent) error
	PublishSession(ev events.SessionEvent) error
	Close()
}

// NopPublisher implements TelemetryPublisher with no-op methods.
type NopPublisher struct{}

func (NopPublisher) PublishStatus(events.StatusEvent) error   { return nil }
func (NopPublisher) PublishSession(events.SessionEvent) error { return nil }
func (NopPublisher) Close()                                   {}

// PahoPublisher implements TelemetryPublisher using Eclipse Paho.
type PahoPublisher struct {
	cli    paho.Client
	prefix string
	qos    byte
	log    logger.Logger
}

// NewPublisher connects to the broker, or returns a NopPublisher when
// telemetry is disabled.
func NewPublisher(cfg Config, log logger.Logger) (TelemetryPublisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return &PahoPublisher{cli: cli, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// PublishStatus pushes a load snapshot to <prefix>/<substation>/status.
func (p *PahoPublisher) PublishStatus(ev events.StatusEvent) error {
	return p.publish(ev.Status.SubstationID+"/status", ev)
}

// PublishSession pushes a session event to <prefix>/<substation>/sessions.
func (p *PahoPublisher) PublishSession(ev events.SessionEvent) error {
	return p.publish(ev.SubstationID+"/sessions", ev)
}

func (p *PahoPublisher) publish(suffix string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	topic := p.prefix + "/" + suffix
	token := p.cli.Publish(topic, p.qos, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() { p.cli.Disconnect(250) }
