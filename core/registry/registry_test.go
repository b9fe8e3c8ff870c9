package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/gridwatt/evrouter/core/model"
)

func TestRegistryUpsertAndSnapshot(t *testing.T) {
	r := New()
	r.Upsert("http://a", model.StationStatus{SubstationID: "sub-a", CurrentLoadKW: 10, MaxCapacityKW: 100, AvailableKW: 90})
	r.Upsert("http://b", model.StationStatus{SubstationID: "sub-b", MaxCapacityKW: 50, AvailableKW: 50})

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}
	if snap[0].SubstationID != "sub-a" || snap[1].SubstationID != "sub-b" {
		t.Fatalf("snapshot not sorted by id: %#v", snap)
	}
	if !snap[0].Healthy || snap[0].LastUpdated.IsZero() {
		t.Fatalf("upserted entry not healthy or missing timestamp: %+v", snap[0])
	}

	// Snapshot entries are copies, mutating them must not leak back.
	snap[0].Healthy = false
	if r.HealthyCount() != 2 {
		t.Fatal("snapshot mutation leaked into registry")
	}
}

func TestRegistryMarkUnhealthy(t *testing.T) {
	r := New()
	r.Upsert("http://a", model.StationStatus{SubstationID: "sub-a"})
	r.MarkUnhealthy("http://a")
	if r.HealthyCount() != 0 {
		t.Fatal("entry still healthy after MarkUnhealthy")
	}
	// An endpoint that never answered a poll creates no entry.
	r.MarkUnhealthy("http://ghost")
	if len(r.Snapshot()) != 1 {
		t.Fatal("MarkUnhealthy created a phantom entry")
	}
}

func TestRegistryEndpointLookup(t *testing.T) {
	r := New()
	r.Upsert("http://a", model.StationStatus{SubstationID: "sub-a"})
	ep, ok := r.Endpoint("sub-a")
	if !ok || ep != "http://a" {
		t.Fatalf("endpoint lookup: %q %v", ep, ok)
	}
	if _, ok := r.Endpoint("sub-x"); ok {
		t.Fatal("unknown id resolved to an endpoint")
	}
}

type fakeStatusClient struct {
	statuses map[string]model.StationStatus
	fail     map[string]bool
}

func (f *fakeStatusClient) Status(_ context.Context, endpoint string) (model.StationStatus, error) {
	if f.fail[endpoint] {
		return model.StationStatus{}, errors.New("connection refused")
	}
	st, ok := f.statuses[endpoint]
	if !ok {
		return model.StationStatus{}, errors.New("unknown endpoint")
	}
	return st, nil
}

func TestMonitorPollCycle(t *testing.T) {
	client := &fakeStatusClient{
		statuses: map[string]model.StationStatus{
			"http://a": {SubstationID: "sub-a", CurrentLoadKW: 20, MaxCapacityKW: 100, AvailableKW: 80},
			"http://b": {SubstationID: "sub-b", MaxCapacityKW: 100, AvailableKW: 100},
		},
		fail: map[string]bool{},
	}
	r := New()
	m := NewMonitor(r, client, []string{"http://a", "http://b", "http://dead"}, 0, nil)

	m.pollAll(context.Background())
	if len(r.Snapshot()) != 2 {
		t.Fatalf("registry size = %d, want 2 (dead node never seen)", len(r.Snapshot()))
	}
	if r.HealthyCount() != 2 {
		t.Fatalf("healthy = %d, want 2", r.HealthyCount())
	}

	// Next cycle sub-a stops answering: its entry flips unhealthy and a
	// subsequent selection must not pick it.
	client.fail["http://a"] = true
	m.pollAll(context.Background())
	if r.HealthyCount() != 1 {
		t.Fatalf("healthy = %d after failure, want 1", r.HealthyCount())
	}
	got, err := SelectBestFit(r.Snapshot(), 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.SubstationID != "sub-b" {
		t.Fatalf("selected %s, want sub-b", got.SubstationID)
	}

	// Recovery on a later poll restores eligibility.
	client.fail["http://a"] = false
	m.pollAll(context.Background())
	if r.HealthyCount() != 2 {
		t.Fatalf("healthy = %d after recovery, want 2", r.HealthyCount())
	}
}
