package registry

import (
	"context"
	"time"

	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/core/model"
)

// StatusClient queries a substation's status endpoint with a bounded
// timeout. Implemented by infra/stationapi.
type StatusClient interface {
	Status(ctx context.Context, endpoint string) (model.StationStatus, error)
}

// Monitor polls every configured substation on a fixed period and keeps
// the Registry fresh. Poll failures mark the entry unhealthy and are
// never surfaced to request handlers.
type Monitor struct {
	reg       *Registry
	client    StatusClient
	endpoints []string
	interval  time.Duration
	log       logger.Logger
}

// NewMonitor creates a Monitor over the given endpoints.
func NewMonitor(reg *Registry, client StatusClient, endpoints []string, interval time.Duration, log logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{reg: reg, client: client, endpoints: endpoints, interval: interval, log: log}
}

// Run polls immediately, then on every tick until the context is
// canceled. The loop never exits on poll errors.
func (m *Monitor) Run(ctx context.Context) {
	m.pollAll(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollAll(ctx)
		}
	}
}

func (m *Monitor) pollAll(ctx context.Context) {
	for _, ep := range m.endpoints {
		m.poll(ctx, ep)
	}
}

func (m *Monitor) poll(ctx context.Context, endpoint string) {
	status, err := m.client.Status(ctx, endpoint)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("status poll %s failed: %v", endpoint, err)
		}
		m.reg.MarkUnhealthy(endpoint)
		return
	}
	m.reg.Upsert(endpoint, status)
}
