package loadgen

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Report summarizes one load test run.
type Report struct {
	Pattern       string    `json:"pattern"`
	TotalRequests int       `json:"total_requests"`
	Assigned      int       `json:"assigned"`
	NoCapacity    int       `json:"no_capacity"`
	Rejected      int       `json:"rejected"`
	Errors        int       `json:"errors"`
	SuccessRate   float64   `json:"success_rate"`
	LatencyMeanMS float64   `json:"latency_mean_ms"`
	LatencyP50MS  float64   `json:"latency_p50_ms"`
	LatencyP90MS  float64   `json:"latency_p90_ms"`
	LatencyP95MS  float64   `json:"latency_p95_ms"`
	LatencyP99MS  float64   `json:"latency_p99_ms"`
	ElapsedSecs   float64   `json:"elapsed_seconds"`
	StartedAt     time.Time `json:"started_at"`
}

// summarize fills the latency percentiles from the raw samples. Samples
// are in milliseconds and may arrive unsorted.
func summarize(r *Report, latenciesMS []float64) {
	if len(latenciesMS) == 0 {
		return
	}
	sort.Float64s(latenciesMS)
	r.LatencyMeanMS = stat.Mean(latenciesMS, nil)
	r.LatencyP50MS = stat.Quantile(0.50, stat.Empirical, latenciesMS, nil)
	r.LatencyP90MS = stat.Quantile(0.90, stat.Empirical, latenciesMS, nil)
	r.LatencyP95MS = stat.Quantile(0.95, stat.Empirical, latenciesMS, nil)
	r.LatencyP99MS = stat.Quantile(0.99, stat.Empirical, latenciesMS, nil)
	if r.TotalRequests > 0 {
		r.SuccessRate = float64(r.Assigned) / float64(r.TotalRequests) * 100
	}
}

// WriteFile persists the report as indented JSON.
func (r Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
