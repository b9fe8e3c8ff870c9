package metrics

import (
	"time"

	"github.com/gridwatt/evrouter/core/model"
)

// AssignmentEvent represents one routing attempt to be recorded.
type AssignmentEvent struct {
	RequestID    string
	VehicleID    string
	SubstationID string
	SessionID    string
	PowerKW      float64
	Outcome      string
	Latency      time.Duration
	Time         time.Time
}

// MetricsSink records assignment outcomes for observability purposes.
type MetricsSink interface {
	RecordAssignment(ev AssignmentEvent) error
}

// SessionEvent captures a charging session starting or completing.
type SessionEvent struct {
	SubstationID string
	SessionID    string
	VehicleID    string
	PowerKW      float64
	Status       model.SessionStatus
	Duration     time.Duration
	Time         time.Time
}

// SessionRecorder records session lifecycle events.
type SessionRecorder interface {
	RecordSession(ev SessionEvent) error
}

// StationStatusEvent is a snapshot of a substation's load state.
type StationStatusEvent struct {
	Status model.StationStatus
	Time   time.Time
}

// StationStatusRecorder records substation load snapshots.
type StationStatusRecorder interface {
	RecordStationStatus(ev StationStatusEvent) error
}

// ActiveRequestsRecorder records the router's outstanding request count.
type ActiveRequestsRecorder interface {
	RecordActiveRequests(n int) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }

func (NopSink) RecordSession(SessionEvent) error { return nil }

func (NopSink) RecordStationStatus(StationStatusEvent) error { return nil }

func (NopSink) RecordActiveRequests(int) error { return nil }
