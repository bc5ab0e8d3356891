package session

import (
	"sync"
	"time"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns one Session per client. Sessions are never shared.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	dispatcher *dispatch.Dispatcher
	startDir   string
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewManager(dispatcher *dispatch.Dispatcher, startDir string, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:   map[string]*Session{},
		dispatcher: dispatcher,
		startDir:   startDir,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := newWithClock(id, m.startDir, m.dispatcher, nil, m.now)

	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session", id), zap.Int("active", count))
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Resolve returns the session for id, creating a fresh one when id is empty,
// unknown or ended. created reports whether a new session was made.
func (m *Manager) Resolve(id string) (s *Session, created bool) {
	if existing, ok := m.Get(id); ok && !existing.Ended() {
		return existing, false
	}
	return m.Create(), true
}

func (m *Manager) Close(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.logger.Info("session closed", zap.String("session", id))
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than the TTL and those that have ended.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.Unlock()

	removed := 0
	for _, s := range candidates {
		expired := m.ttl > 0 && now.Sub(s.idleSince()) > m.ttl
		if expired || s.Ended() {
			m.Close(s.ID)
			removed++
		}
	}
	return removed
}
