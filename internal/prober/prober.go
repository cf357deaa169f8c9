// Package prober finds the fastest reachable backend among a fixed set of
// tunnel endpoints.
//
// A probe of one endpoint walks an ordered chain of strategies. Each
// strategy gets its own request timeout. A strategy that receives any
// response ends the chain with a verdict; a strategy that cannot obtain a
// response (transport error, timeout) hands over to the next one. When the
// chain is exhausted the endpoint is unhealthy.
//
// ProbeAll probes every endpoint concurrently and returns the results
// ordered by latency, healthy first. Probes never return errors: every
// failure is an unhealthy result with Unreachable latency.
//
// The prober keeps no state between calls. It is safe for concurrent use.
package prober

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"edgepick/internal/logger"
	"edgepick/internal/models"
)

// Unreachable is the latency of every unhealthy result.
const Unreachable = models.Unreachable

// DefaultTimeout bounds each individual request of a probe.
const DefaultTimeout = 15 * time.Second

// OpaquePolicy decides what an opaque response proves.
type OpaquePolicy int

const (
	// OpaqueUnhealthy treats an opaque response as inconclusive and records
	// the endpoint as down. An intermediary answering with a generic error
	// page cannot be told apart from the real backend.
	OpaqueUnhealthy OpaquePolicy = iota
	// OpaqueHealthy treats an opaque response as healthy but unverified. Use
	// only when the intermediary is known not to swallow backend errors.
	OpaqueHealthy
)

// ParseOpaquePolicy maps "unhealthy" and "healthy" to a policy.
func ParseOpaquePolicy(s string) (OpaquePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unhealthy":
		return OpaqueUnhealthy, nil
	case "healthy":
		return OpaqueHealthy, nil
	default:
		return OpaqueUnhealthy, fmt.Errorf("unknown opaque policy %q", s)
	}
}

func (p OpaquePolicy) String() string {
	if p == OpaqueHealthy {
		return "healthy"
	}
	return "unhealthy"
}

// Prober probes a fixed list of endpoints.
type Prober struct {
	endpoints      []string
	client         *http.Client
	timeout        time.Duration
	strategies     []Strategy
	opaque         OpaquePolicy
	maxConcurrency int
	metrics        *Metrics
	log            *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithClient sets the HTTP client used by every strategy.
func WithClient(c *http.Client) Option { return func(p *Prober) { p.client = c } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(p *Prober) { p.timeout = d } }

// WithStrategies replaces the strategy chain.
func WithStrategies(s ...Strategy) Option { return func(p *Prober) { p.strategies = s } }

// WithOpaquePolicy sets how opaque responses are judged.
func WithOpaquePolicy(op OpaquePolicy) Option { return func(p *Prober) { p.opaque = op } }

// WithMaxConcurrency bounds the number of endpoints probed at once. Zero or
// less means all at once.
func WithMaxConcurrency(n int) Option { return func(p *Prober) { p.maxConcurrency = n } }

// WithMetrics records attempts, verdicts and scans.
func WithMetrics(m *Metrics) Option { return func(p *Prober) { p.metrics = m } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option { return func(p *Prober) { p.log = l } }

// New creates a Prober for the given endpoints. The endpoint slice is copied.
func New(endpoints []string, opts ...Option) *Prober {
	p := &Prober{
		endpoints:  append([]string(nil), endpoints...),
		timeout:    DefaultTimeout,
		strategies: DefaultChain("ngrok-skip-browser-warning", DefaultMarkers),
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return p
}

// Endpoints returns a copy of the configured endpoints.
func (p *Prober) Endpoints() []string {
	return append([]string(nil), p.endpoints...)
}

// ProbeOne checks a single endpoint. It never fails: any error ends as an
// unhealthy result.
func (p *Prober) ProbeOne(ctx context.Context, endpoint string) models.ProbeResult {
	p.log.Debug("probing endpoint", "endpoint", endpoint)
	start := time.Now()

	for _, s := range p.strategies {
		if ctx.Err() != nil {
			break
		}
		attempt, err := p.attempt(ctx, s, endpoint)
		if err != nil {
			p.log.Info("probe attempt failed", "endpoint", endpoint, "strategy", s.Name(), "error", err)
			p.metrics.observeAttempt(s.Name(), "error")
			continue
		}
		p.metrics.observeAttempt(s.Name(), attempt.Outcome.String())

		result := p.judge(endpoint, s.Name(), start, attempt)
		p.log.Info("probe verdict",
			"endpoint", endpoint,
			"strategy", s.Name(),
			"outcome", attempt.Outcome.String(),
			"status", attempt.Status,
			"healthy", result.Healthy,
		)
		p.metrics.observeResult(result)
		return result
	}

	p.log.Info("probe exhausted all strategies", "endpoint", endpoint)
	result := models.Down(endpoint)
	p.metrics.observeResult(result)
	return result
}

// attempt runs one strategy under its own timeout and turns a panic into an
// error so one misbehaving strategy cannot take down the scan.
func (p *Prober) attempt(ctx context.Context, s Strategy, endpoint string) (a Attempt, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	a, err = s.Attempt(ctx, p.client, endpoint)
	if err == nil && a.Outcome == 0 {
		err = errors.New("strategy returned no outcome")
	}
	return a, err
}

func (p *Prober) judge(endpoint, strategy string, start time.Time, a Attempt) models.ProbeResult {
	healthy := a.Outcome == OutcomeHealthy ||
		(a.Outcome == OutcomeOpaque && p.opaque == OpaqueHealthy)
	if !healthy {
		r := models.Down(endpoint)
		r.Strategy = strategy
		return r
	}

	arrived := a.Arrived
	if arrived.IsZero() {
		arrived = time.Now()
	}
	latency := arrived.Sub(start)
	if latency < 0 {
		latency = 0
	}
	return models.ProbeResult{Endpoint: endpoint, Healthy: true, Latency: latency, Strategy: strategy}
}

// ProbeAll probes every endpoint concurrently, waits for all of them to
// settle and returns the results sorted fastest first, unhealthy last.
func (p *Prober) ProbeAll(ctx context.Context) []models.ProbeResult {
	start := time.Now()
	results := make([]models.ProbeResult, len(p.endpoints))

	var g errgroup.Group
	if p.maxConcurrency > 0 {
		g.SetLimit(p.maxConcurrency)
	}
	for i, ep := range p.endpoints {
		i, ep := i, ep
		g.Go(func() error {
			// Each goroutine owns results[i].
			results[i] = p.ProbeOne(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	SortByLatency(results)
	p.metrics.observeScan(time.Since(start))
	return results
}

// PickBest runs ProbeAll and returns the fastest healthy endpoint.
func (p *Prober) PickBest(ctx context.Context) (string, bool) {
	return Best(p.ProbeAll(ctx))
}

// Best returns the endpoint of the first healthy result. On a list sorted by
// SortByLatency that is also the fastest.
func Best(results []models.ProbeResult) (string, bool) {
	for _, r := range results {
		if r.Healthy {
			return r.Endpoint, true
		}
	}
	return "", false
}

// SortByLatency orders results by ascending latency, keeping input order for
// equal latencies. Unhealthy results always sort last.
func SortByLatency(results []models.ProbeResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return sortKey(results[i]) < sortKey(results[j])
	})
}

func sortKey(r models.ProbeResult) time.Duration {
	if !r.Healthy {
		return Unreachable
	}
	return r.Latency
}
