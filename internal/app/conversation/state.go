package conversation

import (
	"github.com/PabloGalante/scam-harness/internal/app/intel"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

// State is the composed session state observed by the presentation layer.
// A State value is never modified after it is published; every transition
// produces a new one with a higher Version.
type State struct {
	Version      uint64              `json:"version"`
	Session      domain.Session      `json:"session"`
	Messages     []domain.Message    `json:"messages"`
	Verdict      domain.Verdict      `json:"verdict"`
	Risk         intel.RiskBand      `json:"risk"`
	Intelligence domain.Intelligence `json:"extractedIntelligence"`
	Ledger       []domain.LogEntry   `json:"apiLogs"`
	Successes    int                 `json:"successfulCalls"`
	Notice       string              `json:"notice,omitempty"`
	InFlight     int                 `json:"inFlight"`
}

// buildStateLocked snapshots every component. Caller holds s.mu.
func (s *Service) buildStateLocked() State {
	s.version++

	verdict := s.verdict
	verdict.Keywords = append([]string{}, s.verdict.Keywords...)

	return State{
		Version:      s.version,
		Session:      s.session,
		Messages:     s.timeline.All(),
		Verdict:      verdict,
		Risk:         intel.Band(verdict.ScamProbability),
		Intelligence: s.intel.Snapshot(),
		Ledger:       s.ledger.All(),
		Successes:    s.ledger.Successes(),
		Notice:       s.notice,
		InFlight:     s.inFlight,
	}
}

// publishLocked records a transition and fans the new State out to subscribers.
// Slow subscribers lose intermediate versions but always receive the latest one.
func (s *Service) publishLocked() {
	st := s.buildStateLocked()
	s.state = st

	for _, ch := range s.subs {
		offerLatest(ch, st)
	}
}

func offerLatest(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	// full: drop the oldest pending state and retry once
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

// State returns the latest published state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe returns a channel that receives the current state immediately and
// every later one. The returned func unsubscribes and closes the channel.
func (s *Service) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	ch <- s.state

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}
