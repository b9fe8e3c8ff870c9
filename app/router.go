// Package app assembles the router and substation services from the
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	routerapi "github.com/gridwatt/evrouter/api/router"
	"github.com/gridwatt/evrouter/config"
	coremetrics "github.com/gridwatt/evrouter/core/metrics"
	"github.com/gridwatt/evrouter/core/registry"
	"github.com/gridwatt/evrouter/core/tracker"
	"github.com/gridwatt/evrouter/infra/logger"
	"github.com/gridwatt/evrouter/infra/metrics"
	"github.com/gridwatt/evrouter/infra/stationapi"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

// RouterService orchestrates the registry, health monitor, tracker and
// the HTTP front door.
type RouterService struct {
	Registry *registry.Registry
	Tracker  *tracker.Tracker

	monitor     *registry.Monitor
	server      *http.Server
	bus         *eventbus.Bus
	sink        coremetrics.MetricsSink
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// NewRouter creates a RouterService from the configuration.
func NewRouter(cfg *config.Config) (*RouterService, error) {
	if err := cfg.Router.Validate(); err != nil {
		return nil, fmt.Errorf("router config: %w", err)
	}
	logg := logger.New("router")

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	reg := registry.New()
	client := stationapi.New(cfg.Router.Timeouts(), logger.New("stationapi"))
	mon := registry.NewMonitor(reg, client, cfg.Router.Substations, cfg.Router.PollInterval(), logger.New("monitor"))
	tr := tracker.New(reg, client, logger.New("tracker"), bus)

	svc := &RouterService{
		Registry:    reg,
		Tracker:     tr,
		monitor:     mon,
		bus:         bus,
		sink:        sink,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	svc.server = &http.Server{
		Addr:    cfg.Router.Listen,
		Handler: routerapi.NewHandler(tr, reg, logg),
	}
	return svc, nil
}

// Run starts the monitor, metrics plumbing and the HTTP server, and
// blocks until the context is cancelled.
func (s *RouterService) Run(ctx context.Context) error {
	go s.monitor.Run(ctx)
	if s.sink != nil {
		metrics.StartEventCollector(ctx, s.bus, s.sink)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("router listening on %s", s.server.Addr)
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
func (s *RouterService) Close() error {
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

func buildSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg))
	}
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}
