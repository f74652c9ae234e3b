package handlers

import (
	"sync"

	"github.com/google/uuid"

	"github.com/astrodocs/missionqa/services/memory"
)

// Session pairs a conversation memory with a lock serializing exchanges.
// Conversations are not safe for concurrent use; concurrent requests against
// the same session take turns.
type Session struct {
	mu   sync.Mutex
	conv *memory.Conversation
}

// Lock acquires the session for one exchange
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Conversation returns the session's memory; callers must hold the lock
func (s *Session) Conversation() *memory.Conversation { return s.conv }

// SessionManager owns the per-session conversation memories of the
// interactive HTTP surface. Each session holds exactly one bounded
// conversation; memories are never shared between sessions.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxTurns int
}

// NewSessionManager creates a new session manager
func NewSessionManager(maxTurns int) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Get returns the session for id, creating a fresh one when id is empty or
// unknown. The returned id identifies the session for follow-ups.
func (s *SessionManager) Get(id string) (string, *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if session, ok := s.sessions[id]; ok {
			return id, session
		}
	}

	id = uuid.New().String()
	session := &Session{conv: memory.NewConversation(s.maxTurns)}
	s.sessions[id] = session
	return id, session
}

// Reset clears the conversation of the given session, if it exists
func (s *SessionManager) Reset(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()

	if ok {
		session.Lock()
		session.conv.Reset()
		session.Unlock()
	}
}

// Len returns the number of live sessions
func (s *SessionManager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
