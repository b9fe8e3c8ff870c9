package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/gridwatt/evrouter/core/metrics"
	"github.com/gridwatt/evrouter/infra/logger"
)

// InfluxSink writes routing and charging events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignment writes the routing outcome as a point.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_event").
		AddTag("substation_id", ev.SubstationID).
		AddTag("outcome", ev.Outcome).
		AddTag("vehicle_id", ev.VehicleID).
		AddField("power_kw", round3(ev.PowerKW)).
		AddField("latency_ms", float64(ev.Latency.Milliseconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSession writes a session lifecycle point.
func (s *InfluxSink) RecordSession(ev coremetrics.SessionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("session_event").
		AddTag("substation_id", ev.SubstationID).
		AddTag("session_id", ev.SessionID).
		AddTag("status", string(ev.Status)).
		AddField("power_kw", round3(ev.PowerKW)).
		AddField("duration_s", ev.Duration.Seconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStationStatus writes a substation load snapshot.
func (s *InfluxSink) RecordStationStatus(ev coremetrics.StationStatusEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("substation_status").
		AddTag("substation_id", ev.Status.SubstationID).
		AddField("current_load_kw", round3(ev.Status.CurrentLoadKW)).
		AddField("max_capacity_kw", round3(ev.Status.MaxCapacityKW)).
		AddField("available_kw", round3(ev.Status.AvailableKW)).
		AddField("active_sessions", ev.Status.ActiveSessions).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
