package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"edgepick/internal/logger"
	"edgepick/internal/models"
	"edgepick/internal/storage"
)

// Manager starts scan sessions on demand and evicts finished ones after a TTL.
type Manager struct {
	scanner    Scanner
	ttl        time.Duration
	interval   time.Duration
	onComplete func(models.Scan)
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
	stopped  bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithOnComplete is called, on the scan goroutine, for every session whose
// results were kept.
func WithOnComplete(fn func(models.Scan)) Option { return func(m *Manager) { m.onComplete = fn } }

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithSweepInterval sets how often expired sessions are evicted.
func WithSweepInterval(d time.Duration) Option { return func(m *Manager) { m.interval = d } }

// NewManager creates a Manager. Call Start to enable eviction.
func NewManager(scanner Scanner, ttl time.Duration, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		scanner:  scanner,
		ttl:      ttl,
		interval: time.Minute,
		log:      logger.Discard(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.interval <= 0 || (m.ttl > 0 && m.ttl < m.interval) {
		m.interval = m.ttl
	}
	if m.interval <= 0 {
		m.interval = time.Minute
	}
	return m
}

// Start begins the periodic eviction of expired sessions.
func (m *Manager) Start() {
	m.log.Info("starting session sweeper", "ttl", m.ttl, "interval", m.interval)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.evictExpired(time.Now())
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop cancels every in-flight session, dropping its results, and waits for
// all goroutines to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		for _, s := range m.sessions {
			s.Cancel()
		}
		m.mu.Unlock()

		close(m.stopChan)
		m.cancel()
		m.wg.Wait()
		m.log.Info("session manager stopped")
	})
}

// Open starts a new scan session and returns immediately.
func (m *Manager) Open() *Session {
	ctx, cancel := context.WithCancel(m.ctx)
	s := newSession(storage.NewID("ses_"), cancel)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		s.Cancel()
		return s
	}
	m.sessions[s.id] = s
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()
		results := m.scanner.ProbeAll(ctx)
		if !s.finish(results) {
			m.log.Debug("dropping results of canceled session", "session", s.id)
			return
		}
		m.log.Info("session ready", "session", s.id, "best", s.Snapshot().Best)
		if m.onComplete != nil {
			m.onComplete(s.scan())
		}
	}()
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Cancel cancels a session by ID. It reports whether the session exists.
func (m *Manager) Cancel(id string) bool {
	s, ok := m.Get(id)
	if !ok {
		return false
	}
	s.Cancel()
	return true
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) evictExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.expired(now, m.ttl) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.log.Debug("evicted expired sessions", "count", evicted)
	}
}
