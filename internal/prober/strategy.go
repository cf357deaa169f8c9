package prober

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a response body is scanned for markers.
const maxBodyBytes = 1 << 20

// Outcome is the conclusive verdict of a strategy that got a response.
type Outcome int

const (
	// OutcomeHealthy means the endpoint answered with real content.
	OutcomeHealthy Outcome = iota + 1
	// OutcomeUnhealthy means the endpoint answered, but with an error status
	// or a dead-relay page.
	OutcomeUnhealthy
	// OutcomeOpaque means something answered but neither status nor body
	// could be trusted. The prober's OpaquePolicy turns it into a verdict.
	OutcomeOpaque
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHealthy:
		return "healthy"
	case OutcomeUnhealthy:
		return "unhealthy"
	case OutcomeOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Attempt is what a strategy learned from one response.
type Attempt struct {
	Outcome Outcome
	Status  int
	// Arrived is when the response headers were received. Latency is
	// measured from the start of the probe to this instant.
	Arrived time.Time
}

// Strategy is one way of asking an endpoint whether it is alive.
//
// Attempt returns an error only when no response could be obtained
// (connection failure, timeout, a response that could not be read).
// Any response, good or bad, is reported as an Attempt and ends the chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, client *http.Client, endpoint string) (Attempt, error)
}

// Marker identifies a tunnel error page: the body contains All and at least
// one of Any.
type Marker struct {
	All string
	Any []string
}

// DefaultMarkers match the error pages ngrok serves for dead tunnels.
var DefaultMarkers = []Marker{
	{All: "ngrok", Any: []string{"ERR_NGROK", "Tunnel not found"}},
}

func (m Marker) matches(body string) bool {
	if m.All != "" && !strings.Contains(body, m.All) {
		return false
	}
	for _, phrase := range m.Any {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return len(m.Any) == 0 && m.All != ""
}

func deadRelay(body string, markers []Marker) bool {
	for _, m := range markers {
		if m.matches(body) {
			return true
		}
	}
	return false
}

// GetStrategy issues a GET, optionally carrying one extra header, and judges
// the endpoint by status code and body.
type GetStrategy struct {
	Label       string
	Header      string // Empty means no extra header
	HeaderValue string
	Markers     []Marker
}

// Name implements Strategy.
func (s GetStrategy) Name() string { return s.Label }

// Attempt implements Strategy.
func (s GetStrategy) Attempt(ctx context.Context, client *http.Client, endpoint string) (Attempt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Attempt{}, fmt.Errorf("build request: %w", err)
	}
	if s.Header != "" {
		req.Header.Set(s.Header, s.HeaderValue)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Attempt{}, err
	}
	defer resp.Body.Close()
	arrived := time.Now()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Attempt{Outcome: OutcomeUnhealthy, Status: resp.StatusCode, Arrived: arrived}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Attempt{}, fmt.Errorf("read body: %w", err)
	}
	if deadRelay(string(body), s.Markers) {
		return Attempt{Outcome: OutcomeUnhealthy, Status: resp.StatusCode, Arrived: arrived}, nil
	}
	return Attempt{Outcome: OutcomeHealthy, Status: resp.StatusCode, Arrived: arrived}, nil
}

// OpaqueStrategy issues a HEAD and ignores everything about the response
// except that it arrived.
type OpaqueStrategy struct {
	Label string
}

// Name implements Strategy.
func (s OpaqueStrategy) Name() string { return s.Label }

// Attempt implements Strategy.
func (s OpaqueStrategy) Attempt(ctx context.Context, client *http.Client, endpoint string) (Attempt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return Attempt{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Attempt{}, err
	}
	arrived := time.Now()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	return Attempt{Outcome: OutcomeOpaque, Arrived: arrived}, nil
}

// DefaultChain returns the three-step chain: GET with the bypass header, GET
// without it, then an opaque HEAD. An empty bypassHeader drops the first
// step.
func DefaultChain(bypassHeader string, markers []Marker) []Strategy {
	var chain []Strategy
	if bypassHeader != "" {
		chain = append(chain, GetStrategy{Label: "bypass-get", Header: bypassHeader, HeaderValue: "1", Markers: markers})
	}
	return append(chain,
		GetStrategy{Label: "plain-get", Markers: markers},
		OpaqueStrategy{Label: "opaque-head"},
	)
}
