package memory

import (
	"fmt"
	"sync"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

// SessionStore holds the single live session and remembers every id it has
// issued so an id is never reused.
type SessionStore struct {
	mu      sync.Mutex
	current *domain.Session
	seen    map[domain.SessionID]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		seen: make(map[domain.SessionID]struct{}),
	}
}

// CreateSession replaces the live session.
func (s *SessionStore) CreateSession(session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[session.ID]; exists {
		return fmt.Errorf("create session %s: %w", session.ID, domain.ErrSessionExists)
	}

	s.seen[session.ID] = struct{}{}
	cp := *session
	s.current = &cp
	return nil
}

// UpdateSession changes settings of the live session.
func (s *SessionStore) UpdateSession(session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != session.ID {
		return fmt.Errorf("update session %s: %w", session.ID, domain.ErrStaleSession)
	}

	cp := *session
	s.current = &cp
	return nil
}
