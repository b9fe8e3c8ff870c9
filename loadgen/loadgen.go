// Package loadgen drives synthetic charging demand against a running
// router and reports latency and outcome statistics.
package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gridwatt/evrouter/core/logger"
)

// Options configures one load test run.
type Options struct {
	TargetURL string
	Pattern   string // rush-hour, sustained or spike
	Requests  int
	Workers   int
	Duration  time.Duration // pacing window for rush-hour and sustained
	Timeout   time.Duration
	Seed      int64
}

// Tester runs the configured traffic pattern.
type Tester struct {
	opts Options
	http *http.Client
	log  logger.Logger
	rng  *rand.Rand
}

// New creates a Tester. Zero options fall back to a short sustained run.
func New(opts Options, log logger.Logger) *Tester {
	if opts.Pattern == "" {
		opts.Pattern = "sustained"
	}
	if opts.Requests <= 0 {
		opts.Requests = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if opts.Duration <= 0 {
		opts.Duration = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Tester{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
		log:  log,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
}

type result struct {
	outcome   string
	latencyMS float64
}

// Run executes the pattern and returns the aggregated report. The
// router must answer its health endpoint before any load is sent.
func (t *Tester) Run(ctx context.Context) (Report, error) {
	if err := t.preflight(ctx); err != nil {
		return Report{}, err
	}

	report := Report{
		Pattern:       t.opts.Pattern,
		TotalRequests: t.opts.Requests,
		StartedAt:     time.Now().UTC(),
	}
	delays, err := t.schedule()
	if err != nil {
		return Report{}, err
	}

	jobs := make(chan vehicle)
	results := make(chan result, t.opts.Requests)
	var wg sync.WaitGroup
	for i := 0; i < t.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				results <- t.fire(ctx, v)
			}
		}()
	}

	started := time.Now()
feed:
	for i := 0; i < t.opts.Requests; i++ {
		select {
		case <-ctx.Done():
			report.TotalRequests = i
			break feed
		case jobs <- randomVehicle(t.rng, i):
		}
		if d := delays[i]; d > 0 {
			select {
			case <-ctx.Done():
				report.TotalRequests = i + 1
				break feed
			case <-time.After(d):
			}
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var latencies []float64
	for res := range results {
		latencies = append(latencies, res.latencyMS)
		switch res.outcome {
		case "assigned":
			report.Assigned++
		case "no_capacity":
			report.NoCapacity++
		case "rejected":
			report.Rejected++
		default:
			report.Errors++
		}
	}
	report.ElapsedSecs = time.Since(started).Seconds()
	summarize(&report, latencies)
	if t.log != nil {
		t.log.Infof("%s: %d/%d assigned, p95 %.1fms", report.Pattern, report.Assigned, report.TotalRequests, report.LatencyP95MS)
	}
	return report, nil
}

// schedule computes the inter-request delay for every request index.
// rush-hour ramps in over the first 30% of requests, holds a fast peak
// for the next 40%, then ramps out; sustained paces uniformly; spike
// sends everything at once.
func (t *Tester) schedule() ([]time.Duration, error) {
	n := t.opts.Requests
	delays := make([]time.Duration, n)
	switch t.opts.Pattern {
	case "spike":
		return delays, nil
	case "sustained":
		step := t.opts.Duration / time.Duration(n)
		for i := range delays {
			delays[i] = step
		}
		return delays, nil
	case "rush-hour":
		base := t.opts.Duration / time.Duration(n)
		rampIn := int(float64(n) * 0.3)
		peakEnd := rampIn + int(float64(n)*0.4)
		for i := range delays {
			switch {
			case i < rampIn:
				// Linearly accelerate from 2x down to 1x the base gap.
				frac := float64(i) / float64(rampIn)
				delays[i] = time.Duration(float64(base) * (2 - frac))
			case i < peakEnd:
				delays[i] = base / 2
			default:
				frac := float64(i-peakEnd) / float64(n-peakEnd)
				delays[i] = time.Duration(float64(base) * (1 + frac))
			}
		}
		return delays, nil
	default:
		return nil, fmt.Errorf("unknown pattern %q", t.opts.Pattern)
	}
}

func (t *Tester) preflight(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.opts.TargetURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("router unreachable at %s: %w", t.opts.TargetURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("router health check returned %d", resp.StatusCode)
	}
	return nil
}

func (t *Tester) fire(ctx context.Context, v vehicle) result {
	body, _ := json.Marshal(map[string]any{
		"vehicle_id":      v.ID,
		"requested_power": v.RequestedPower,
		"duration":        v.DurationSecs,
	})
	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.TargetURL+"/api/charge", bytes.NewReader(body))
	if err != nil {
		return result{outcome: "error"}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.http.Do(req)
	latency := float64(time.Since(started).Microseconds()) / 1000
	if err != nil {
		return result{outcome: "error", latencyMS: latency}
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return result{outcome: "assigned", latencyMS: latency}
	case http.StatusServiceUnavailable:
		var out struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&out) == nil && out.Error == "no_capacity" {
			return result{outcome: "no_capacity", latencyMS: latency}
		}
		return result{outcome: "rejected", latencyMS: latency}
	case http.StatusBadGateway:
		return result{outcome: "rejected", latencyMS: latency}
	default:
		return result{outcome: "error", latencyMS: latency}
	}
}
