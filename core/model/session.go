package model

import "time"

// SessionStatus is the lifecycle state of a charging session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ChargingSession is a single vehicle charging session owned by the
// substation that admitted it. The router only ever reads copies.
type ChargingSession struct {
	ID              string        `json:"session_id"`
	VehicleID       string        `json:"vehicle_id"`
	PowerKW         float64       `json:"power"`
	DurationSeconds float64       `json:"duration"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	Status          SessionStatus `json:"status"`
}

// Duration returns the session duration as a time.Duration.
func (s ChargingSession) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// EstimatedCompletion is the scheduled completion time of the session.
func (s ChargingSession) EstimatedCompletion() time.Time {
	return s.StartTime.Add(s.Duration())
}
