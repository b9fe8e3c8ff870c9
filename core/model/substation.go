package model

import "time"

// StationStatus is a read-only snapshot of a substation's load state.
type StationStatus struct {
	SubstationID       string  `json:"substation_id"`
	CurrentLoadKW      float64 `json:"current_load"`
	MaxCapacityKW      float64 `json:"max_capacity"`
	UtilizationPercent float64 `json:"utilization_percent"`
	ActiveSessions     int     `json:"active_sessions"`
	AvailableKW        float64 `json:"available_capacity"`
}

// ChargeAck is a substation's acknowledgment of an admitted session.
type ChargeAck struct {
	Status              string    `json:"status"`
	SessionID           string    `json:"session_id"`
	SubstationID        string    `json:"substation_id"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}
