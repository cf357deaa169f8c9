package models

import (
	"encoding/json"
	"math"
	"time"
)

// Unreachable is the latency recorded for an endpoint that could not be
// shown to be healthy. It sorts after every measured latency.
const Unreachable = time.Duration(math.MaxInt64)

// ProbeResult is the verdict of one probe of one endpoint.
type ProbeResult struct {
	Endpoint string        `json:"endpoint"`
	Healthy  bool          `json:"healthy"`
	Latency  time.Duration `json:"-"`
	Strategy string        `json:"strategy,omitempty"` // Strategy that produced the verdict, if any
}

// Down returns the unhealthy result for an endpoint.
func Down(endpoint string) ProbeResult {
	return ProbeResult{Endpoint: endpoint, Latency: Unreachable}
}

type probeResultJSON struct {
	Endpoint  string   `json:"endpoint"`
	Healthy   bool     `json:"healthy"`
	LatencyMS *float64 `json:"latency_ms"` // null when unreachable
	Strategy  string   `json:"strategy,omitempty"`
}

// MarshalJSON encodes the latency in milliseconds, or null when unreachable.
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	out := probeResultJSON{Endpoint: r.Endpoint, Healthy: r.Healthy, Strategy: r.Strategy}
	if r.Latency != Unreachable {
		ms := float64(r.Latency) / float64(time.Millisecond)
		out.LatencyMS = &ms
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *ProbeResult) UnmarshalJSON(data []byte) error {
	var in probeResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Endpoint = in.Endpoint
	r.Healthy = in.Healthy
	r.Strategy = in.Strategy
	r.Latency = Unreachable
	if in.LatencyMS != nil {
		r.Latency = time.Duration(*in.LatencyMS * float64(time.Millisecond))
	}
	return nil
}

// Summary aggregates the healthy latencies of one scan.
type Summary struct {
	Total            int      `json:"total"`
	Healthy          int      `json:"healthy"`
	Unhealthy        int      `json:"unhealthy"`
	MedianLatencyMS  *float64 `json:"median_latency_ms"`
	FastestLatencyMS *float64 `json:"fastest_latency_ms"`
}

// Scan is the record of one completed probe run.
type Scan struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Best       string        `json:"best"` // Empty when no endpoint was healthy
	Results    []ProbeResult `json:"results"`
}
