package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Manager maps IDs to sessions for surfaces that serve many clients.
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	defaultVoice bool
}

// NewManager creates a manager whose new sessions start with voice set to
// defaultVoice.
func NewManager(defaultVoice bool) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		defaultVoice: defaultVoice,
	}
}

// Create starts a new session with a random ID.
func (m *Manager) Create() *Session {
	s := New(m.defaultVoice)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get looks up a session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, creating it when missing. An empty
// id always creates a session with a random ID.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id == "" {
		return m.Create(), true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, false
	}

	s = NewWithID(id, m.defaultVoice)
	m.sessions[id] = s
	return s, true
}

// Delete drops a session. Unknown IDs are ignored.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than idle and returns how many were
// removed.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := time.Now().UTC().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(idle)
			}
		}
	}()
}
