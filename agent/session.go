package agent

import (
	"sync"

	"github.com/google/uuid"
)

// Session collects the results of successive runs under one continuity key.
// It is safe for concurrent use and keeps everything in memory.
type Session struct {
	ID uuid.UUID

	mu   sync.Mutex
	runs []RunResult
}

// NewSession creates a session with a fresh UUID.
func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// ResumeSession creates a session handle for an existing continuity key.
func ResumeSession(id uuid.UUID) *Session {
	return &Session{ID: id}
}

// Record appends a run result to the session history.
func (s *Session) Record(result RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, result)
}

// History returns a copy of the recorded runs in order.
func (s *Session) History() []RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]RunResult, len(s.runs))
	copy(history, s.runs)
	return history
}
