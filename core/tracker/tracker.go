// Package tracker keeps the router's view of outstanding assignments
// and reconciles them against substation-reported session state.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridwatt/evrouter/core/events"
	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/core/model"
	"github.com/gridwatt/evrouter/core/registry"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

// historyExposed caps how many completed assignments List reports.
// The full history is retained internally.
const historyExposed = 20

// StationClient issues admit and session-query calls to a substation
// with bounded timeouts. Implemented by infra/stationapi.
type StationClient interface {
	Charge(ctx context.Context, endpoint string, req model.ChargeRequest) (model.ChargeAck, error)
	Session(ctx context.Context, endpoint, sessionID string) (model.ChargingSession, error)
}

// AssignResult carries the stored assignment plus the selection context
// reported back to the caller.
type AssignResult struct {
	Assignment   model.Assignment
	Ack          model.ChargeAck
	LoadBeforeKW float64
	CapacityKW   float64
}

// StatusResult is the reconciled state of one assignment.
type StatusResult struct {
	Status     model.AssignmentStatus
	Assignment model.Assignment
}

// Overview is the full tracker listing.
type Overview struct {
	Active          []model.Assignment `json:"active_requests"`
	RecentCompleted []model.Assignment `json:"recent_completed"`
	TotalActive     int                `json:"total_active"`
}

// Tracker maps outstanding request ids to assignments. Mutations come
// from concurrent request handlers; one mutex guards the maps and the
// history log. Remote calls never run under the lock.
type Tracker struct {
	reg    *registry.Registry
	client StationClient

	mu      sync.Mutex
	active  map[string]model.Assignment
	history []model.Assignment

	log logger.Logger
	bus eventbus.EventBus
	now func() time.Time
}

// New creates a Tracker routing over the given registry. The logger and
// bus may be nil.
func New(reg *registry.Registry, client StationClient, log logger.Logger, bus eventbus.EventBus) *Tracker {
	return &Tracker{
		reg:    reg,
		client: client,
		active: make(map[string]model.Assignment),
		log:    log,
		bus:    bus,
		now:    time.Now,
	}
}

// Assign selects the best-fit substation for the request and issues the
// admit call. Only a successful admission is recorded; every failure
// returns with no state change and no retry against another node.
func (t *Tracker) Assign(ctx context.Context, req model.ChargeRequest) (AssignResult, error) {
	started := t.now()
	chosen, err := registry.SelectBestFit(t.reg.Snapshot(), req.RequestedPower)
	if err != nil {
		t.publishOutcome(req, model.Assignment{}, "no_capacity", started)
		return AssignResult{}, err
	}

	ack, err := t.client.Charge(ctx, chosen.Endpoint, req)
	if err != nil {
		if errors.Is(err, model.ErrStationRejected) {
			if t.log != nil {
				t.log.Warnf("substation %s rejected request %s: %v", chosen.SubstationID, req.RequestID, err)
			}
			t.publishOutcome(req, model.Assignment{SubstationID: chosen.SubstationID}, "substation_rejected", started)
			return AssignResult{}, err
		}
		if t.log != nil {
			t.log.Errorf("charge call to %s failed: %v", chosen.SubstationID, err)
		}
		t.publishOutcome(req, model.Assignment{SubstationID: chosen.SubstationID}, "communication_error", started)
		return AssignResult{}, fmt.Errorf("charge call to %s: %w", chosen.SubstationID, model.ErrCommunication)
	}

	asg := model.Assignment{
		Request:      req,
		SubstationID: chosen.SubstationID,
		Endpoint:     chosen.Endpoint,
		SessionID:    ack.SessionID,
		Status:       model.AssignmentAssigned,
		AssignedAt:   t.now().UTC(),
	}
	t.mu.Lock()
	t.active[req.RequestID] = asg
	t.mu.Unlock()

	if t.log != nil {
		t.log.Infof("request %s assigned to %s (session %s)", req.RequestID, chosen.SubstationID, ack.SessionID)
	}
	t.publishOutcome(req, asg, "success", started)
	return AssignResult{
		Assignment:   asg,
		Ack:          ack,
		LoadBeforeKW: chosen.Status.CurrentLoadKW,
		CapacityKW:   chosen.Status.MaxCapacityKW,
	}, nil
}

// Status reconciles one assignment against the owning substation. Once
// an assignment has reached history the stored answer is terminal and
// repeated calls return it unchanged. A failed session query is treated
// as transient: the assignment stays active and the last known state is
// reported without error.
func (t *Tracker) Status(ctx context.Context, requestID string) (StatusResult, error) {
	t.mu.Lock()
	for i := len(t.history) - 1; i >= 0; i-- {
		if t.history[i].Request.RequestID == requestID {
			res := StatusResult{Status: model.AssignmentCompleted, Assignment: t.history[i]}
			t.mu.Unlock()
			return res, nil
		}
	}
	asg, ok := t.active[requestID]
	t.mu.Unlock()
	if !ok {
		return StatusResult{}, fmt.Errorf("request %s: %w", requestID, model.ErrNotFound)
	}

	sess, err := t.client.Session(ctx, asg.Endpoint, asg.SessionID)
	if err != nil || sess.Status != model.SessionCompleted {
		return StatusResult{Status: model.AssignmentAssigned, Assignment: asg}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.active[requestID]
	if !ok {
		// A concurrent reconciliation already migrated it.
		for i := len(t.history) - 1; i >= 0; i-- {
			if t.history[i].Request.RequestID == requestID {
				return StatusResult{Status: model.AssignmentCompleted, Assignment: t.history[i]}, nil
			}
		}
		return StatusResult{}, fmt.Errorf("request %s: %w", requestID, model.ErrNotFound)
	}
	current.Status = model.AssignmentCompleted
	if sess.EndTime != nil {
		current.CompletedAt = sess.EndTime
	} else {
		end := t.now().UTC()
		current.CompletedAt = &end
	}
	delete(t.active, requestID)
	t.history = append(t.history, current)
	if t.log != nil {
		t.log.Infof("request %s completed on %s", requestID, current.SubstationID)
	}
	return StatusResult{Status: model.AssignmentCompleted, Assignment: current}, nil
}

// List returns all active assignments, the most recent completed ones
// and the active count.
func (t *Tracker) List() Overview {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := make([]model.Assignment, 0, len(t.active))
	for _, a := range t.active {
		active = append(active, a)
	}
	n := len(t.history)
	start := 0
	if n > historyExposed {
		start = n - historyExposed
	}
	recent := make([]model.Assignment, 0, n-start)
	recent = append(recent, t.history[start:]...)
	return Overview{Active: active, RecentCompleted: recent, TotalActive: len(active)}
}

func (t *Tracker) publishOutcome(req model.ChargeRequest, asg model.Assignment, outcome string, started time.Time) {
	if t.bus == nil {
		return
	}
	t.mu.Lock()
	activeCount := len(t.active)
	t.mu.Unlock()
	t.bus.Publish(events.AssignmentEvent{
		RequestID:      req.RequestID,
		VehicleID:      req.VehicleID,
		SubstationID:   asg.SubstationID,
		SessionID:      asg.SessionID,
		PowerKW:        req.RequestedPower,
		Outcome:        outcome,
		Latency:        t.now().Sub(started),
		ActiveRequests: activeCount,
		Time:           t.now().UTC(),
	})
}
