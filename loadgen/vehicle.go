package loadgen

import (
	"fmt"
	"math/rand"
)

// vehicleProfile bounds the power draw and session length generated for
// one vehicle class.
type vehicleProfile struct {
	class       string
	minPowerKW  float64
	maxPowerKW  float64
	minDuration float64
	maxDuration float64
}

var profiles = []vehicleProfile{
	{class: "compact", minPowerKW: 3.7, maxPowerKW: 11, minDuration: 600, maxDuration: 1800},
	{class: "sedan", minPowerKW: 7.4, maxPowerKW: 22, minDuration: 900, maxDuration: 2700},
	{class: "suv", minPowerKW: 11, maxPowerKW: 50, minDuration: 1200, maxDuration: 3600},
	{class: "truck", minPowerKW: 50, maxPowerKW: 150, minDuration: 1800, maxDuration: 5400},
}

type vehicle struct {
	ID             string
	Class          string
	RequestedPower float64
	DurationSecs   float64
}

func randomVehicle(rng *rand.Rand, seq int) vehicle {
	p := profiles[rng.Intn(len(profiles))]
	return vehicle{
		ID:             fmt.Sprintf("EV-%s-%04d", p.class, seq),
		Class:          p.class,
		RequestedPower: p.minPowerKW + rng.Float64()*(p.maxPowerKW-p.minPowerKW),
		DurationSecs:   p.minDuration + rng.Float64()*(p.maxDuration-p.minDuration),
	}
}
