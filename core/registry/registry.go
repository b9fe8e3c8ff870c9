// Package registry holds the router's cached view of every known
// substation and the best-fit selection over it. The cache is advisory:
// substations stay the single source of truth for admission.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/gridwatt/evrouter/core/model"
)

// Entry is the router-owned copy of one substation's last observed
// state. Entries are created on first successful poll and never deleted;
// a permanently unreachable node stays, unhealthy, excluded from
// selection.
type Entry struct {
	SubstationID string              `json:"substation_id"`
	Endpoint     string              `json:"url"`
	Status       model.StationStatus `json:"status"`
	Healthy      bool                `json:"healthy"`
	LastUpdated  time.Time           `json:"last_updated"`
}

// Registry is the mutex-guarded substation cache. It is written only by
// the health monitor and read by request handlers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Upsert stores a fresh healthy snapshot for the substation reported by
// a successful poll.
func (r *Registry) Upsert(endpoint string, status model.StationStatus) {
	r.mu.Lock()
	r.entries[status.SubstationID] = Entry{
		SubstationID: status.SubstationID,
		Endpoint:     endpoint,
		Status:       status,
		Healthy:      true,
		LastUpdated:  time.Now().UTC(),
	}
	r.mu.Unlock()
}

// MarkUnhealthy flips the health flag of the entry polled through the
// given endpoint. A node that never answered a poll has no entry and
// nothing happens.
func (r *Registry) MarkUnhealthy(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.Endpoint == endpoint {
			e.Healthy = false
			r.entries[id] = e
			return
		}
	}
}

// Snapshot returns a copy of all entries sorted by substation id.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubstationID < out[j].SubstationID })
	return out
}

// Endpoint returns the stored endpoint for a substation id.
func (r *Registry) Endpoint(substationID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[substationID]
	return e.Endpoint, ok
}

// HealthyCount returns how many cached substations are marked healthy.
func (r *Registry) HealthyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.Healthy {
			n++
		}
	}
	return n
}
