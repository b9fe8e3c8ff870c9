package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gridwatt/evrouter/infra/stationapi"
)

// RouterConfig holds the routing service settings: listen address, the
// substation fleet to poll, and per-call HTTP timeouts.
type RouterConfig struct {
	Listen                string   `json:"listen"`
	Substations           []string `json:"substations"`
	PollIntervalSeconds   int      `json:"poll_interval_seconds"`
	StatusTimeoutSeconds  int      `json:"status_timeout_seconds"`
	ChargeTimeoutSeconds  int      `json:"charge_timeout_seconds"`
	SessionTimeoutSeconds int      `json:"session_timeout_seconds"`
}

func (c *RouterConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = 5
	}
	if c.StatusTimeoutSeconds == 0 {
		c.StatusTimeoutSeconds = 5
	}
	if c.ChargeTimeoutSeconds == 0 {
		c.ChargeTimeoutSeconds = 5
	}
	if c.SessionTimeoutSeconds == 0 {
		c.SessionTimeoutSeconds = 5
	}
	// Environment overrides arrive as a single comma-separated value.
	if len(c.Substations) == 1 && strings.Contains(c.Substations[0], ",") {
		parts := strings.Split(c.Substations[0], ",")
		c.Substations = c.Substations[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				c.Substations = append(c.Substations, p)
			}
		}
	}
}

func (c RouterConfig) Validate() error {
	if len(c.Substations) == 0 {
		return fmt.Errorf("router requires at least one substation url")
	}
	for _, u := range c.Substations {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("substation url %q must be http(s)", u)
		}
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be >= 1")
	}
	return nil
}

// PollInterval returns the health poll period.
func (c RouterConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Timeouts returns the per-call HTTP timeouts for substation requests.
func (c RouterConfig) Timeouts() stationapi.Timeouts {
	return stationapi.Timeouts{
		Status:  time.Duration(c.StatusTimeoutSeconds) * time.Second,
		Charge:  time.Duration(c.ChargeTimeoutSeconds) * time.Second,
		Session: time.Duration(c.SessionTimeoutSeconds) * time.Second,
	}
}
