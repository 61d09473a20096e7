// Package session holds per-conversation state: the uploaded document, the
// voice toggle and the turn history shown by the chat surfaces.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one completed turn as shown in history.
type Entry struct {
	TurnID   string    `json:"turn_id"`
	UserText string    `json:"user_text"`
	Answer   string    `json:"answer"`
	OK       bool      `json:"ok"`
	At       time.Time `json:"at"`
}

// Session is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.RWMutex
	documentName string
	documentText string
	voice        bool
	history      []Entry
	lastActive   time.Time
}

// New creates a session with a random ID.
func New(voice bool) *Session {
	return NewWithID(uuid.NewString(), voice)
}

// NewWithID creates a session with the given ID.
func NewWithID(id string, voice bool) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		voice:      voice,
		lastActive: now,
	}
}

// SetDocument replaces the document context.
func (s *Session) SetDocument(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentName = name
	s.documentText = text
	s.lastActive = time.Now().UTC()
}

// ClearDocument removes the document context.
func (s *Session) ClearDocument() {
	s.SetDocument("", "")
}

// Document returns the current document name and text. Both are empty when
// nothing was uploaded.
func (s *Session) Document() (name, text string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentName, s.documentText
}

// Voice reports whether replies should be spoken.
func (s *Session) Voice() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice
}

// SetVoice flips the voice toggle.
func (s *Session) SetVoice(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = on
	s.lastActive = time.Now().UTC()
}

// Record appends a history entry.
func (s *Session) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	s.lastActive = time.Now().UTC()
}

// History returns a copy of the history, oldest first.
func (s *Session) History() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.history))
	copy(out, s.history)
	return out
}

// LastActive is the time of the last mutation.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Touch marks the session as active now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now().UTC()
}
