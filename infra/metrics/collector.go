package metrics

import (
	"context"

	"github.com/gridwatt/evrouter/core/events"
	coremetrics "github.com/gridwatt/evrouter/core/metrics"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.AssignmentEvent:
					_ = sink.RecordAssignment(coremetrics.AssignmentEvent{
						RequestID:    e.RequestID,
						VehicleID:    e.VehicleID,
						SubstationID: e.SubstationID,
						SessionID:    e.SessionID,
						PowerKW:      e.PowerKW,
						Outcome:      e.Outcome,
						Latency:      e.Latency,
						Time:         e.Time,
					})
					if r, ok := sink.(coremetrics.ActiveRequestsRecorder); ok {
						_ = r.RecordActiveRequests(e.ActiveRequests)
					}
				case events.SessionEvent:
					if r, ok := sink.(coremetrics.SessionRecorder); ok {
						_ = r.RecordSession(coremetrics.SessionEvent{
							SubstationID: e.SubstationID,
							SessionID:    e.SessionID,
							VehicleID:    e.VehicleID,
							PowerKW:      e.PowerKW,
							Status:       e.Status,
							Duration:     e.Duration,
							Time:         e.Time,
						})
					}
				case events.StatusEvent:
					if r, ok := sink.(coremetrics.StationStatusRecorder); ok {
						_ = r.RecordStationStatus(coremetrics.StationStatusEvent{
							Status: e.Status,
							Time:   e.Time,
						})
					}
				}
			}
		}
	}()
}
