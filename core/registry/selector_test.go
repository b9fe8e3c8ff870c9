package registry

import (
	"errors"
	"testing"

	"github.com/gridwatt/evrouter/core/model"
)

func entry(id string, load, capacity float64, healthy bool) Entry {
	return Entry{
		SubstationID: id,
		Endpoint:     "http://" + id,
		Healthy:      healthy,
		Status: model.StationStatus{
			SubstationID:  id,
			CurrentLoadKW: load,
			MaxCapacityKW: capacity,
			AvailableKW:   capacity - load,
		},
	}
}

func TestSelectBestFitPicksLeastLoaded(t *testing.T) {
	entries := []Entry{
		entry("sub-b", 40, 100, true),
		entry("sub-a", 70, 100, true),
		entry("sub-c", 10, 100, true),
	}
	got, err := SelectBestFit(entries, 20)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.SubstationID != "sub-c" {
		t.Fatalf("selected %s, want sub-c", got.SubstationID)
	}
}

func TestSelectBestFitSkipsUnhealthy(t *testing.T) {
	entries := []Entry{
		entry("sub-a", 0, 100, false),
		entry("sub-b", 50, 100, true),
	}
	got, err := SelectBestFit(entries, 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.SubstationID != "sub-b" {
		t.Fatalf("selected unhealthy substation %s", got.SubstationID)
	}
}

func TestSelectBestFitSkipsInsufficientCapacity(t *testing.T) {
	entries := []Entry{
		entry("sub-a", 95, 100, true),
		entry("sub-b", 90, 100, true),
	}
	if _, err := SelectBestFit(entries, 20); !errors.Is(err, model.ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
}

func TestSelectBestFitEmptyRegistry(t *testing.T) {
	if _, err := SelectBestFit(nil, 1); !errors.Is(err, model.ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
}

func TestSelectBestFitDeterministicTieBreak(t *testing.T) {
	entries := []Entry{
		entry("sub-z", 30, 100, true),
		entry("sub-a", 30, 100, true),
		entry("sub-m", 30, 100, true),
	}
	for i := 0; i < 10; i++ {
		got, err := SelectBestFit(entries, 10)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if got.SubstationID != "sub-a" {
			t.Fatalf("tie-break not deterministic: got %s on call %d", got.SubstationID, i)
		}
	}
}
