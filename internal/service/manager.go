package service

import (
	"sync"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/logging"

	"github.com/google/uuid"
)

// Manager is the in-memory registry of sessions. Nothing it holds is ever
// written to disk.
type Manager struct {
	opts Options
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a registry whose sessions share opts. Each session
// gets its own random source unless opts.Rand is set.
func NewManager(opts Options, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{opts: opts, ttl: ttl, sessions: map[string]*Session{}}
}

// Create registers a new idle session under a random UUID.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := NewSession(id, m.opts)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	logging.Info("session created", logging.Fields{constants.LogFieldSessionID: id})
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove closes and forgets a session. It reports whether it existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
		logging.Info("session closed", logging.Fields{constants.LogFieldSessionID: id})
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session, e.g. on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

// idleSince lists the sessions whose last activity is at or before cutoff.
func (m *Manager) idleSince(cutoff time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, s := range m.sessions {
		if !s.LastActive().After(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
