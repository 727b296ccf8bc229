package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edom-dev/edom/pkg/protocol"
)

// SessionManager tracks live sessions and closes idle ones.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxSessions int
	idleTimeout time.Duration
	interval    time.Duration

	// onSweep runs after every cleanup pass. Set before the loop starts.
	onSweep func()

	stop     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}

	metrics *metrics
	logger  *slog.Logger
}

// newSessionManager creates a manager and starts its cleanup loop. onSweep,
// when non-nil, runs after every cleanup pass.
func newSessionManager(config *Config, m *metrics, logger *slog.Logger, onSweep func()) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: config.MaxSessions,
		idleTimeout: config.IdleTimeout,
		interval:    config.CleanupInterval,
		onSweep:     onSweep,
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
		metrics:     m,
		logger:      logger,
	}
	go sm.cleanupLoop()
	return sm
}

// Create registers a new session built by build under a fresh id.
func (sm *SessionManager) Create(build func(id string) (*Session, error)) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		return nil, ErrMaxSessionsReached
	}

	id := uuid.NewString()
	s, err := build(id)
	if err != nil {
		return nil, err
	}
	s.onClose = sm.remove
	sm.sessions[id] = s

	sm.metrics.activeSessions.Inc()
	sm.metrics.sessionsTotal.Inc()
	sm.logger.Info("session created", "session_id", id, "active", len(sm.sessions))
	return s, nil
}

// Get returns the session with the given id, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) remove(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.sessions[s.ID] == s {
		delete(sm.sessions, s.ID)
		sm.metrics.activeSessions.Dec()
	}
}

func (sm *SessionManager) snapshot() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

func (sm *SessionManager) cleanupLoop() {
	defer close(sm.stopped)

	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpired()
			if sm.onSweep != nil {
				sm.onSweep()
			}
		case <-sm.stop:
			return
		}
	}
}

// cleanupExpired closes sessions that have exceeded their idle timeout.
func (sm *SessionManager) cleanupExpired() int {
	cutoff := time.Now().Add(-sm.idleTimeout)
	expired := 0
	for _, s := range sm.snapshot() {
		if s.LastActive().Before(cutoff) {
			s.CloseWithReason(protocol.CloseSessionExpired, "idle timeout")
			expired++
		}
	}
	if expired > 0 {
		sm.logger.Info("expired sessions closed", "count", expired)
	}
	return expired
}

// Shutdown stops the cleanup loop and closes every session.
func (sm *SessionManager) Shutdown() {
	sm.stopOnce.Do(func() { close(sm.stop) })
	<-sm.stopped
	for _, s := range sm.snapshot() {
		s.CloseWithReason(protocol.CloseServerShutdown, "server shutting down")
	}
}
