// Package events defines the payload types carried on the internal
// event bus between the domain aggregates and the metrics collector.
package events

import (
	"time"

	"github.com/gridwatt/evrouter/core/model"
)

// AssignmentEvent reports the outcome of one routing attempt.
type AssignmentEvent struct {
	RequestID      string
	VehicleID      string
	SubstationID   string
	SessionID      string
	PowerKW        float64
	Outcome        string
	Latency        time.Duration
	ActiveRequests int
	Time           time.Time
}

// SessionEvent reports a charging session starting or completing on a
// substation.
type SessionEvent struct {
	SubstationID string
	SessionID    string
	VehicleID    string
	PowerKW      float64
	Status       model.SessionStatus
	Duration     time.Duration
	Time         time.Time
}

// StatusEvent carries a fresh substation load snapshot.
type StatusEvent struct {
	Status model.StationStatus
	Time   time.Time
}
