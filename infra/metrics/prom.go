package metrics

import (
	coremetrics "github.com/gridwatt/evrouter/core/metrics"
	"github.com/gridwatt/evrouter/core/model"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records routing and charging events in Prometheus metrics.
type PromSink struct {
	requests        *prometheus.CounterVec
	assignDuration  prometheus.Histogram
	activeRequests  prometheus.Gauge
	stationLoad     *prometheus.GaugeVec
	stationCapacity *prometheus.GaugeVec
	sessions        *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_requests_total",
			Help: "Total routing requests by outcome",
		}, []string{"endpoint", "status"}),
		assignDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "substation_assignment_duration_seconds",
			Help:    "Time spent assigning requests to substations",
			Buckets: prometheus.DefBuckets,
		}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "router_active_requests",
			Help: "Number of active charging requests",
		}),
		stationLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "substation_current_load_kw",
			Help: "Current load of the substation in kW",
		}, []string{"substation_id"}),
		stationCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "substation_max_capacity_kw",
			Help: "Maximum capacity of the substation in kW",
		}, []string{"substation_id"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charging_sessions_total",
			Help: "Total number of charging sessions",
		}, []string{"substation_id", "status"}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "charging_session_duration_seconds",
			Help:    "Duration of charging sessions",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"substation_id"}),
	}

	collectors := []prometheus.Collector{
		s.requests, s.assignDuration, s.activeRequests,
		s.stationLoad, s.stationCapacity, s.sessions, s.sessionDuration,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.requests = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.assignDuration = are.ExistingCollector.(prometheus.Histogram)
			case 2:
				s.activeRequests = are.ExistingCollector.(prometheus.Gauge)
			case 3:
				s.stationLoad = are.ExistingCollector.(*prometheus.GaugeVec)
			case 4:
				s.stationCapacity = are.ExistingCollector.(*prometheus.GaugeVec)
			case 5:
				s.sessions = are.ExistingCollector.(*prometheus.CounterVec)
			case 6:
				s.sessionDuration = are.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	}
	return s, nil
}

// RecordAssignment counts the routing outcome and observes its latency.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.requests.WithLabelValues("assign", ev.Outcome).Inc()
	s.assignDuration.Observe(ev.Latency.Seconds())
	return nil
}

// RecordSession counts session starts and completions and observes the
// duration of completed sessions.
func (s *PromSink) RecordSession(ev coremetrics.SessionEvent) error {
	switch ev.Status {
	case model.SessionActive:
		s.sessions.WithLabelValues(ev.SubstationID, "started").Inc()
	case model.SessionCompleted:
		s.sessions.WithLabelValues(ev.SubstationID, "completed").Inc()
		s.sessionDuration.WithLabelValues(ev.SubstationID).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordStationStatus sets the per-substation load gauges.
func (s *PromSink) RecordStationStatus(ev coremetrics.StationStatusEvent) error {
	s.stationLoad.WithLabelValues(ev.Status.SubstationID).Set(ev.Status.CurrentLoadKW)
	s.stationCapacity.WithLabelValues(ev.Status.SubstationID).Set(ev.Status.MaxCapacityKW)
	return nil
}

// RecordActiveRequests sets the outstanding request gauge.
func (s *PromSink) RecordActiveRequests(n int) error {
	s.activeRequests.Set(float64(n))
	return nil
}
