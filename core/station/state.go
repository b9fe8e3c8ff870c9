// Package station implements the authoritative capacity manager of one
// power substation: admission control, charging session tracking and
// timed capacity release.
package station

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridwatt/evrouter/core/events"
	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/core/model"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

// ErrSessionNotFound is returned when a session id is unknown to the
// substation, in both the active set and the history.
var ErrSessionNotFound = errors.New("session not found")

// historyExposed caps how many completed sessions are reported
// externally. The full history is retained in memory.
const historyExposed = 10

// CapacityError reports a refused admission together with the load
// figures needed to diagnose it without server access.
type CapacityError struct {
	CurrentLoadKW    float64
	MaxCapacityKW    float64
	RequestedPowerKW float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: load %.2f kW + requested %.2f kW exceeds %.2f kW",
		e.CurrentLoadKW, e.RequestedPowerKW, e.MaxCapacityKW)
}

// Unwrap lets callers classify the refusal with errors.Is.
func (e *CapacityError) Unwrap() error { return model.ErrStationRejected }

// State owns the load accounting and session set of one substation.
// All mutation paths, concurrent admits and timer-driven completions,
// are serialized through a single mutex so that the admission check and
// the load increment form one atomic step.
type State struct {
	id       string
	capacity float64

	mu       sync.Mutex
	load     float64
	active   map[string]*model.ChargingSession
	history  []model.ChargingSession
	now      func() time.Time
	schedule func(d time.Duration, f func())

	log logger.Logger
	bus eventbus.EventBus
}

// New creates the capacity manager for a substation with a fixed
// maximum capacity in kW. The logger and bus may be nil.
func New(id string, maxCapacityKW float64, log logger.Logger, bus eventbus.EventBus) *State {
	s := &State{
		id:       id,
		capacity: maxCapacityKW,
		active:   make(map[string]*model.ChargingSession),
		now:      time.Now,
		log:      log,
		bus:      bus,
	}
	s.schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	return s
}

// ID returns the substation identifier.
func (s *State) ID() string { return s.id }

// Status returns a snapshot of the current load state. No side effects.
func (s *State) Status() model.StationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.StationStatus{
		SubstationID:       s.id,
		CurrentLoadKW:      s.load,
		MaxCapacityKW:      s.capacity,
		UtilizationPercent: s.load / s.capacity * 100,
		ActiveSessions:     len(s.active),
		AvailableKW:        s.capacity - s.load,
	}
}

// Admit checks the requested power against the remaining capacity and,
// when it fits, commits a new session and schedules its completion.
// Check and commit happen under one lock acquisition; two near
// simultaneous admits can never jointly overcommit the capacity.
// A refusal leaves the state untouched and carries the load figures.
func (s *State) Admit(vehicleID string, powerKW float64, duration time.Duration) (model.ChargingSession, error) {
	s.mu.Lock()
	if s.load+powerKW > s.capacity {
		cerr := &CapacityError{
			CurrentLoadKW:    s.load,
			MaxCapacityKW:    s.capacity,
			RequestedPowerKW: powerKW,
		}
		s.mu.Unlock()
		return model.ChargingSession{}, cerr
	}
	sess := &model.ChargingSession{
		ID:              uuid.NewString(),
		VehicleID:       vehicleID,
		PowerKW:         powerKW,
		DurationSeconds: duration.Seconds(),
		StartTime:       s.now().UTC(),
		Status:          model.SessionActive,
	}
	s.active[sess.ID] = sess
	s.load += powerKW
	// Copy before unlocking: once the timer is armed, complete may
	// mutate the stored session concurrently.
	ret := *sess
	s.mu.Unlock()

	// The timer always fires; admitted capacity is always released.
	s.schedule(duration, func() { s.complete(ret.ID) })

	if s.log != nil {
		s.log.Infof("started charging session %s for vehicle %s (%.2f kW, %s)",
			ret.ID, vehicleID, powerKW, duration)
	}
	s.publishSession(ret)
	s.publishStatus()
	return ret, nil
}

// complete releases the session's capacity and moves it to history. It
// runs only from the completion timer. A session that is already gone
// makes this a no-op.
func (s *State) complete(sessionID string) {
	s.mu.Lock()
	sess, ok := s.active[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}
	end := s.now().UTC()
	sess.EndTime = &end
	sess.Status = model.SessionCompleted
	s.load -= sess.PowerKW
	delete(s.active, sessionID)
	s.history = append(s.history, *sess)
	done := *sess
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("completed charging session %s (released %.2f kW)", sessionID, done.PowerKW)
	}
	s.publishSession(done)
	s.publishStatus()
}

// Session looks up a session by id in the active set, then in history.
func (s *State) Session(sessionID string) (model.ChargingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.active[sessionID]; ok {
		return *sess, nil
	}
	for i := range s.history {
		if s.history[i].ID == sessionID {
			return s.history[i], nil
		}
	}
	return model.ChargingSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// Sessions returns the active sessions and the most recently completed
// ones, capped at the external exposure limit.
func (s *State) Sessions() (active, completed []model.ChargingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active = make([]model.ChargingSession, 0, len(s.active))
	for _, sess := range s.active {
		active = append(active, *sess)
	}
	n := len(s.history)
	start := 0
	if n > historyExposed {
		start = n - historyExposed
	}
	completed = append(completed, s.history[start:]...)
	return active, completed
}

func (s *State) publishSession(sess model.ChargingSession) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.SessionEvent{
		SubstationID: s.id,
		SessionID:    sess.ID,
		VehicleID:    sess.VehicleID,
		PowerKW:      sess.PowerKW,
		Status:       sess.Status,
		Duration:     sess.Duration(),
		Time:         s.now().UTC(),
	})
}

func (s *State) publishStatus() {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.StatusEvent{Status: s.Status(), Time: s.now().UTC()})
}
