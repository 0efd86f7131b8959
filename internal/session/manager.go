package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/fund-portal/internal/common"
)

const defaultMaxSessions = 1000

// Manager creates, finds and reaps sessions. Sessions with no attached
// connection expire after the idle timeout.
type Manager struct {
	deps        Deps
	logger      *common.Logger
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(deps Deps, idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
		deps.Logger = logger
	}
	return &Manager{
		deps:        deps,
		logger:      logger,
		idleTimeout: idleTimeout,
		maxSessions: defaultMaxSessions,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session with a random ID. The least recently used
// session is evicted when the manager is at capacity.
func (m *Manager) Create() *Session {
	id := uuid.New().String()
	s := newSession(id, m.deps, func() time.Time { return m.now() })
	s.onTheme = m.PublishAll

	m.mu.Lock()
	var evicted *Session
	if len(m.sessions) >= m.maxSessions {
		evicted = m.oldestLocked()
		if evicted != nil {
			delete(m.sessions, evicted.id)
		}
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if evicted != nil {
		m.logger.Info().Str("session", evicted.id).Msg("session evicted at capacity")
		evicted.Close()
	}
	m.logger.Debug().Str("session", id).Msg("session created")
	return s
}

// Get returns the session for id and marks it as active.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PublishAll re-renders every session, used when process-wide state such as
// the theme changes.
func (m *Manager) PublishAll() {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		s.publish("", false)
	}
}

// Reap closes sessions that have no connection and have been idle longer than
// the idle timeout. It returns the number closed.
func (m *Manager) Reap() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.broker.ClientCount() == 0 && s.idleSince(now) > m.idleTimeout {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.logger.Debug().Str("session", s.id).Msg("idle session reaped")
	}
	return len(expired)
}

// Run reaps idle sessions periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTimeout / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				m.logger.Info().Int("reaped", n).Int("live", m.Len()).Msg("idle sessions reaped")
			}
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

// oldestLocked returns the least recently active session. Must be called with mu held.
func (m *Manager) oldestLocked() *Session {
	now := m.now()
	var oldest *Session
	var oldestIdle time.Duration = -1
	for _, s := range m.sessions {
		if idle := s.idleSince(now); idle > oldestIdle {
			oldest = s
			oldestIdle = idle
		}
	}
	return oldest
}
