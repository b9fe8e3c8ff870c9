package registry

import (
	"fmt"
	"sort"

	"github.com/gridwatt/evrouter/core/model"
)

// SelectBestFit picks the least-loaded healthy substation whose
// available capacity covers the requested power. Ties on current load
// break on ascending substation id so repeated calls over the same
// snapshot are deterministic.
//
// The snapshot may be up to one poll interval stale and is not a
// reservation: the chosen substation's own admission check can still
// refuse, and the caller surfaces that refusal without reselecting.
func SelectBestFit(entries []Entry, requestedPowerKW float64) (Entry, error) {
	eligible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Healthy {
			continue
		}
		if e.Status.AvailableKW < requestedPowerKW {
			continue
		}
		eligible = append(eligible, e)
	}
	if len(eligible) == 0 {
		return Entry{}, fmt.Errorf("no substation can take %.2f kW: %w", requestedPowerKW, model.ErrNoCapacity)
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Status.CurrentLoadKW != eligible[j].Status.CurrentLoadKW {
			return eligible[i].Status.CurrentLoadKW < eligible[j].Status.CurrentLoadKW
		}
		return eligible[i].SubstationID < eligible[j].SubstationID
	})
	return eligible[0], nil
}
