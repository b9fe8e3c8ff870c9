package model

import "time"

// AssignmentStatus is the router-side lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment records which substation a charging request was routed to.
// It is mutated only by status reconciliation and becomes immutable once
// it reaches AssignmentCompleted.
type Assignment struct {
	Request      ChargeRequest    `json:"request"`
	SubstationID string           `json:"substation_id"`
	Endpoint     string           `json:"substation_url"`
	SessionID    string           `json:"session_id"`
	Status       AssignmentStatus `json:"status"`
	AssignedAt   time.Time        `json:"assigned_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}
