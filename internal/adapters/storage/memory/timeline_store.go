package memory

import (
	"sync"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

// TimelineStore is the append-only message log of the active session.
type TimelineStore struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewTimelineStore() *TimelineStore {
	return &TimelineStore{}
}

// Append adds msg at the end. Timestamps never go backwards: a message older
// than the current tail is stamped with the tail's timestamp.
func (s *TimelineStore) Append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.messages); n > 0 {
		if last := s.messages[n-1].Timestamp; msg.Timestamp.Before(last) {
			msg.Timestamp = last
		}
	}
	s.messages = append(s.messages, msg)
}

// All returns a copy of the timeline in append order.
func (s *TimelineStore) All() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *TimelineStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
}
