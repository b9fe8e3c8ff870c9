package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gridwatt/evrouter/core/model"
	"github.com/gridwatt/evrouter/core/registry"
	"github.com/gridwatt/evrouter/core/tracker"
)

type fakeAssigner struct {
	assignErr error
	statusErr error
	status    tracker.StatusResult
	lastReq   model.ChargeRequest
}

func (f *fakeAssigner) Assign(_ context.Context, req model.ChargeRequest) (tracker.AssignResult, error) {
	f.lastReq = req
	if f.assignErr != nil {
		return tracker.AssignResult{}, f.assignErr
	}
	return tracker.AssignResult{
		Assignment: model.Assignment{
			Request:      req,
			SubstationID: "sub-a",
			SessionID:    "sess-1",
			Status:       model.AssignmentAssigned,
			AssignedAt:   time.Now().UTC(),
		},
		Ack:          model.ChargeAck{SessionID: "sess-1", SubstationID: "sub-a"},
		LoadBeforeKW: 10,
		CapacityKW:   100,
	}, nil
}

func (f *fakeAssigner) Status(_ context.Context, requestID string) (tracker.StatusResult, error) {
	if f.statusErr != nil {
		return tracker.StatusResult{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeAssigner) List() tracker.Overview {
	return tracker.Overview{Active: []model.Assignment{}, RecentCompleted: []model.Assignment{}}
}

func newRouterServer(t *testing.T, fa *fakeAssigner) *httptest.Server {
	t.Helper()
	reg := registry.New()
	reg.Upsert("http://a", model.StationStatus{SubstationID: "sub-a", MaxCapacityKW: 100, AvailableKW: 100})
	srv := httptest.NewServer(NewHandler(fa, reg, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestChargeStampsRequestID(t *testing.T) {
	fa := &fakeAssigner{}
	srv := newRouterServer(t, fa)

	resp, err := http.Post(srv.URL+"/api/charge", "application/json",
		strings.NewReader(`{"vehicle_id":"EV-1","requested_power":20,"duration":300}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "assigned" || out["substation_id"] != "sub-a" {
		t.Fatalf("unexpected response: %v", out)
	}
	if fa.lastReq.RequestID == "" || fa.lastReq.Timestamp.IsZero() {
		t.Fatalf("request not stamped: %+v", fa.lastReq)
	}
	if out["request_id"] != fa.lastReq.RequestID {
		t.Fatal("response request_id differs from stamped id")
	}
}

func TestChargeValidationError(t *testing.T) {
	srv := newRouterServer(t, &fakeAssigner{})
	resp, err := http.Post(srv.URL+"/api/charge", "application/json",
		strings.NewReader(`{"vehicle_id":"","requested_power":20,"duration":300}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChargeErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantKind string
	}{
		{fmt.Errorf("select: %w", model.ErrNoCapacity), http.StatusServiceUnavailable, "no_capacity"},
		{fmt.Errorf("charge: %w", model.ErrStationRejected), http.StatusBadGateway, "substation_rejected"},
		{fmt.Errorf("charge: %w", model.ErrCommunication), http.StatusServiceUnavailable, "communication_error"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, c := range cases {
		srv := newRouterServer(t, &fakeAssigner{assignErr: c.err})
		resp, err := http.Post(srv.URL+"/api/charge", "application/json",
			strings.NewReader(`{"vehicle_id":"EV-1","requested_power":20,"duration":300}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		var out map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != c.wantCode || out["error"] != c.wantKind {
			t.Fatalf("err %v: got %d %v, want %d %s", c.err, resp.StatusCode, out["error"], c.wantCode, c.wantKind)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	fa := &fakeAssigner{status: tracker.StatusResult{
		Status:     model.AssignmentCompleted,
		Assignment: model.Assignment{SubstationID: "sub-a", Status: model.AssignmentCompleted},
	}}
	srv := newRouterServer(t, fa)

	resp, err := http.Get(srv.URL + "/api/status/r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Status  string           `json:"status"`
		Details model.Assignment `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "completed" || out.Details.SubstationID != "sub-a" {
		t.Fatalf("unexpected status payload: %+v", out)
	}
}

func TestStatusNotFound(t *testing.T) {
	fa := &fakeAssigner{statusErr: fmt.Errorf("request r9: %w", model.ErrNotFound)}
	srv := newRouterServer(t, fa)
	resp, err := http.Get(srv.URL + "/api/status/r9")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSubstationsEndpoint(t *testing.T) {
	srv := newRouterServer(t, &fakeAssigner{})
	resp, err := http.Get(srv.URL + "/api/substations")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Substations        []registry.Entry `json:"substations"`
		TotalSubstations   int              `json:"total_substations"`
		HealthySubstations int              `json:"healthy_substations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalSubstations != 1 || out.HealthySubstations != 1 || len(out.Substations) != 1 {
		t.Fatalf("unexpected substations payload: %+v", out)
	}
}
