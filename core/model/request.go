package model

import (
	"fmt"
	"time"
)

// ChargeRequest is an inbound charging request. RequestID and Timestamp
// are stamped by the router when the client omits them.
type ChargeRequest struct {
	RequestID      string    `json:"request_id"`
	VehicleID      string    `json:"vehicle_id"`
	RequestedPower float64   `json:"requested_power"`
	DurationSecs   float64   `json:"duration"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// Validate rejects malformed requests before any state is touched.
func (r ChargeRequest) Validate() error {
	if r.VehicleID == "" {
		return fmt.Errorf("missing required field vehicle_id: %w", ErrValidation)
	}
	if r.RequestedPower <= 0 {
		return fmt.Errorf("requested_power must be positive: %w", ErrValidation)
	}
	if r.DurationSecs <= 0 {
		return fmt.Errorf("duration must be positive: %w", ErrValidation)
	}
	return nil
}

// Duration returns the requested charging duration.
func (r ChargeRequest) Duration() time.Duration {
	return time.Duration(r.DurationSecs * float64(time.Second))
}
