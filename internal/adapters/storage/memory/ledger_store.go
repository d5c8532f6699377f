package memory

import (
	"sort"
	"sync"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

// LedgerStore is an in-memory audit log of detection calls.
// Entries are kept in call-issue order (by Seq), not in the order they were recorded.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
}

// NewLedgerStore creates an empty ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// Record inserts entry at the position given by its Seq.
func (s *LedgerStore) Record(entry domain.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Responses usually arrive in issue order, so the common case is an append.
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Seq > entry.Seq
	})
	s.entries = append(s.entries, domain.LogEntry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = entry
}

// All returns a copy of the ledger.
func (s *LedgerStore) All() []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Successes counts entries whose call resolved successfully.
func (s *LedgerStore) Successes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.Succeeded() {
			n++
		}
	}
	return n
}

// Clear drops every entry; only used by a full session reset.
func (s *LedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
}
