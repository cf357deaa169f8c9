package session

import (
	"context"
	"sync"
	"time"

	"edgepick/internal/models"
	"edgepick/internal/prober"
)

// State is where a session is in its page-load lifecycle.
type State string

const (
	StateProbing  State = "probing"
	StateReady    State = "ready"
	StateCanceled State = "canceled"
)

// Scanner runs one full probe scan.
type Scanner interface {
	ProbeAll(ctx context.Context) []models.ProbeResult
}

// Session is one page load waiting on a scan.
type Session struct {
	id        string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.RWMutex
	state      State
	finishedAt time.Time
	results    []models.ProbeResult
	best       string
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID         string               `json:"id"`
	State      State                `json:"state"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
	Best       string               `json:"best,omitempty"`
	Results    []models.ProbeResult `json:"results"`
}

func newSession(id string, cancel context.CancelFunc) *Session {
	return &Session{
		id:        id,
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateProbing,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Done is closed when the session leaves StateProbing.
func (s *Session) Done() <-chan struct{} { return s.done }

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		StartedAt: s.startedAt,
		Best:      s.best,
		Results:   append([]models.ProbeResult{}, s.results...),
	}
	if !s.finishedAt.IsZero() {
		f := s.finishedAt
		snap.FinishedAt = &f
	}
	return snap
}

// Wait blocks until the scan finishes, the session is canceled or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel abandons the scan. Results that arrive afterwards are dropped.
// Canceling a finished session does nothing.
func (s *Session) Cancel() {
	s.mu.Lock()
	canceled := false
	if s.state == StateProbing {
		s.state = StateCanceled
		s.finishedAt = time.Now().UTC()
		canceled = true
	}
	s.mu.Unlock()

	s.cancel()
	if canceled {
		close(s.done)
	}
}

// finish stores the results unless the session was canceled first. It
// reports whether the results were kept.
func (s *Session) finish(results []models.ProbeResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProbing {
		return false
	}
	s.state = StateReady
	s.finishedAt = time.Now().UTC()
	s.results = results
	s.best, _ = prober.Best(results)
	close(s.done)
	return true
}

func (s *Session) scan() models.Scan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Scan{
		ID:         s.id,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
		Best:       s.best,
		Results:    s.results,
	}
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateProbing {
		return false
	}
	return now.Sub(s.finishedAt) > ttl
}
