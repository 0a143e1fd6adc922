// Package history keeps per-session conversation logs for the process
// lifetime. Sessions are never evicted; callers clear them explicitly.
package history

import (
	"sync"

	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/openai"
)

// Store is an in-memory conversation store keyed by session ID. Safe for
// concurrent use across sessions; each session has one ordered message log
// whose first entry is always the system prompt.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]openai.Message
	log      *logging.Logger
}

// NewStore creates an empty conversation store.
func NewStore(log *logging.Logger) *Store {
	return &Store{
		sessions: make(map[string][]openai.Message),
		log:      log.Sub("history"),
	}
}

// Init creates the session with a single system message. A session that
// already exists is left untouched, including its original system prompt.
func (s *Store) Init(sessionID, systemPrompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return
	}
	s.sessions[sessionID] = []openai.Message{{
		Role:    openai.RoleSystem,
		Content: systemPrompt,
	}}
	s.log.Info().Str("sessionId", sessionID).Msg("initialized conversation")
}

// History returns a snapshot of the session's messages. Unknown sessions
// yield an empty slice.
func (s *Store) History(sessionID string) []openai.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	out := make([]openai.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Append adds a message to the session, creating an empty log if the session
// is unknown. Normal flow calls Init first.
func (s *Store) Append(sessionID string, msg openai.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	s.log.Debug().Str("sessionId", sessionID).Str("role", msg.Role).Msg("message appended")
}

// Clear removes one session.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	s.log.Info().Str("sessionId", sessionID).Msg("cleared conversation")
}

// ClearAll removes every session.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string][]openai.Message)
	s.log.Info().Msg("cleared all conversations")
}

// Has reports whether the session exists.
func (s *Store) Has(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// MessageCount returns the number of messages in a session (0 if unknown).
func (s *Store) MessageCount(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// SessionCount returns the number of active sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
