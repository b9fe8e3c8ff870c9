package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	apistation "github.com/gridwatt/evrouter/api/station"
	"github.com/gridwatt/evrouter/config"
	coremetrics "github.com/gridwatt/evrouter/core/metrics"
	"github.com/gridwatt/evrouter/core/station"
	"github.com/gridwatt/evrouter/infra/logger"
	"github.com/gridwatt/evrouter/infra/metrics"
	"github.com/gridwatt/evrouter/infra/mqtt"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

// SubstationService runs one capacity manager and its HTTP API.
type SubstationService struct {
	State *station.State

	server      *http.Server
	bus         *eventbus.Bus
	sink        coremetrics.MetricsSink
	pub         mqtt.TelemetryPublisher
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// NewSubstation creates a SubstationService from the configuration.
func NewSubstation(cfg *config.Config) (*SubstationService, error) {
	id := cfg.Substation.ID
	if id == "" {
		id = "substation-1"
	}
	logg := logger.New("substation")

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	pub, err := mqtt.NewPublisher(cfg.Telemetry, logger.New("telemetry"))
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	st := station.New(id, cfg.Substation.MaxCapacityKW, logg, bus)

	svc := &SubstationService{
		State:       st,
		bus:         bus,
		sink:        sink,
		pub:         pub,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	svc.server = &http.Server{
		Addr:    cfg.Substation.Listen,
		Handler: apistation.NewHandler(st, logg),
	}
	return svc, nil
}

// Run starts telemetry, metrics plumbing and the HTTP server, and
// blocks until the context is cancelled.
func (s *SubstationService) Run(ctx context.Context) error {
	if s.sink != nil {
		metrics.StartEventCollector(ctx, s.bus, s.sink)
	}
	mqtt.StartTelemetry(ctx, s.bus, s.pub, s.log)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("substation %s listening on %s (capacity %.1f kW)", s.State.ID(), s.server.Addr, s.State.Status().MaxCapacityKW)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutCtx)
}

// Close releases resources held by the service.
func (s *SubstationService) Close() error {
	s.pub.Close()
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
