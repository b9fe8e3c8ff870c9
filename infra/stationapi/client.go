// Package stationapi is the router's HTTP client for substation nodes.
// Every call carries a bounded timeout; a handler blocks for at most
// that timeout before the peer is treated as unreachable.
package stationapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/core/model"
)

// Timeouts bounds each call type.
type Timeouts struct {
	Status  time.Duration
	Charge  time.Duration
	Session time.Duration
}

// DefaultTimeouts keeps every inter-node call in the single-digit
// second range.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Status:  5 * time.Second,
		Charge:  5 * time.Second,
		Session: 5 * time.Second,
	}
}

// Client talks to substation endpoints over JSON/HTTP.
type Client struct {
	http     *http.Client
	timeouts Timeouts
	log      logger.Logger
}

// New creates a Client. Zero timeout fields fall back to the defaults.
func New(timeouts Timeouts, log logger.Logger) *Client {
	def := DefaultTimeouts()
	if timeouts.Status <= 0 {
		timeouts.Status = def.Status
	}
	if timeouts.Charge <= 0 {
		timeouts.Charge = def.Charge
	}
	if timeouts.Session <= 0 {
		timeouts.Session = def.Session
	}
	return &Client{http: &http.Client{}, timeouts: timeouts, log: log}
}

// Status queries GET {endpoint}/status.
func (c *Client) Status(ctx context.Context, endpoint string) (model.StationStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Status)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/status", nil)
	if err != nil {
		return model.StationStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.StationStatus{}, fmt.Errorf("status %s: %w", endpoint, err)
	}
	defer discard(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return model.StationStatus{}, fmt.Errorf("status %s: unexpected code %d", endpoint, resp.StatusCode)
	}
	var st model.StationStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return model.StationStatus{}, fmt.Errorf("status %s: decode: %w", endpoint, err)
	}
	return st, nil
}

// Charge issues POST {endpoint}/charge. A 409 or any other non-success
// response maps to model.ErrStationRejected so the tracker can tell an
// authoritative refusal from a transport failure.
func (c *Client) Charge(ctx context.Context, endpoint string, cr model.ChargeRequest) (model.ChargeAck, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Charge)
	defer cancel()

	body, err := json.Marshal(cr)
	if err != nil {
		return model.ChargeAck{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/charge", bytes.NewReader(body))
	if err != nil {
		return model.ChargeAck{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return model.ChargeAck{}, fmt.Errorf("charge %s: %w", endpoint, err)
	}
	defer discard(resp.Body)
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusConflict:
		var rej struct {
			Error       string  `json:"error"`
			CurrentLoad float64 `json:"current_load"`
			MaxCapacity float64 `json:"max_capacity"`
			RequestedKW float64 `json:"requested_power"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&rej)
		return model.ChargeAck{}, fmt.Errorf("charge %s: %s (load %.2f/%.2f kW, requested %.2f kW): %w",
			endpoint, rej.Error, rej.CurrentLoad, rej.MaxCapacity, rej.RequestedKW, model.ErrStationRejected)
	default:
		return model.ChargeAck{}, fmt.Errorf("charge %s: unexpected code %d: %w",
			endpoint, resp.StatusCode, model.ErrStationRejected)
	}
	var ack model.ChargeAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return model.ChargeAck{}, fmt.Errorf("charge %s: decode: %w", endpoint, err)
	}
	return ack, nil
}

// Session queries GET {endpoint}/sessions/{id}.
func (c *Client) Session(ctx context.Context, endpoint, sessionID string) (model.ChargingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Session)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/sessions/"+sessionID, nil)
	if err != nil {
		return model.ChargingSession{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.ChargingSession{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	defer discard(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return model.ChargingSession{}, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return model.ChargingSession{}, fmt.Errorf("session %s: unexpected code %d", sessionID, resp.StatusCode)
	}
	var sess model.ChargingSession
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return model.ChargingSession{}, fmt.Errorf("session %s: decode: %w", sessionID, err)
	}
	return sess, nil
}

// Health queries GET {endpoint}/health, used by the load harness
// pre-flight check.
func (c *Client) Health(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Status)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer discard(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health %s: code %d", endpoint, resp.StatusCode)
	}
	return nil
}

func discard(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
