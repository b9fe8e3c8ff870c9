package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gridwatt/evrouter/core/events"
	"github.com/gridwatt/evrouter/core/model"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

type capturePublisher struct {
	mu       sync.Mutex
	statuses []events.StatusEvent
	sessions []events.SessionEvent
}

func (c *capturePublisher) PublishStatus(ev events.StatusEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, ev)
	return nil
}

func (c *capturePublisher) PublishSession(ev events.SessionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append(c.sessions, ev)
	return nil
}

func (c *capturePublisher) Close() {}

func (c *capturePublisher) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.statuses), len(c.sessions)
}

func TestStartTelemetryForwardsEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	pub := &capturePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartTelemetry(ctx, bus, pub, nil)
	// Give the subscriber a beat to register before publishing.
	time.Sleep(10 * time.Millisecond)

	bus.Publish(events.StatusEvent{Status: model.StationStatus{SubstationID: "sub-a"}})
	bus.Publish(events.SessionEvent{SubstationID: "sub-a", SessionID: "s1", Status: model.SessionActive})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		st, se := pub.counts()
		if st == 1 && se == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	st, se := pub.counts()
	t.Fatalf("telemetry not forwarded: %d statuses, %d sessions", st, se)
}

func TestNopPublisher(t *testing.T) {
	var p TelemetryPublisher = NopPublisher{}
	if err := p.PublishStatus(events.StatusEvent{}); err != nil {
		t.Fatalf("nop status: %v", err)
	}
	if err := p.PublishSession(events.SessionEvent{}); err != nil {
		t.Fatalf("nop session: %v", err)
	}
	p.Close()
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.TopicPrefix == "" || cfg.ClientID == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	cfg.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled telemetry without broker should fail validation")
	}
	cfg.Broker = "tcp://localhost:1883"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
