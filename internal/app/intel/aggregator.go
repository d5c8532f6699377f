// Package intel keeps the intelligence snapshot of the active session and
// derives the local scam verdict from it.
package intel

import (
	"sync"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

// MaxKeywords caps the keywords carried by a Verdict. The snapshot keeps all of them.
const MaxKeywords = 5

// Aggregator holds the most recent intelligence payload. Every Update replaces
// the snapshot wholesale; nothing is merged or deduplicated across calls.
type Aggregator struct {
	mu       sync.RWMutex
	snapshot domain.Intelligence
}

func NewAggregator() *Aggregator {
	return &Aggregator{snapshot: domain.Intelligence{}.Clone()}
}

// Update overwrites the snapshot with in.
func (a *Aggregator) Update(in domain.Intelligence) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshot = in.Clone()
}

// Snapshot returns a copy of the current snapshot.
func (a *Aggregator) Snapshot() domain.Intelligence {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.snapshot.Clone()
}

func (a *Aggregator) Reset() {
	a.Update(domain.Intelligence{})
}

// DeriveVerdict maps the service's detection flag and extracted intelligence to a verdict.
//
//	detected, hard intel     -> 0.9
//	detected, no hard intel  -> 0.7
//	not detected, keywords   -> 0.4
//	not detected, nothing    -> 0.1
func DeriveVerdict(detected bool, in domain.Intelligence) domain.Verdict {
	var p float64
	switch {
	case detected && in.HasIntel():
		p = 0.9
	case detected:
		p = 0.7
	case len(in.SuspiciousKeywords) > 0:
		p = 0.4
	default:
		p = 0.1
	}

	n := min(len(in.SuspiciousKeywords), MaxKeywords)
	keywords := make([]string, n)
	copy(keywords, in.SuspiciousKeywords[:n])

	return domain.Verdict{
		ScamProbability: p,
		Keywords:        keywords,
		AgentActive:     detected,
	}
}

// ZeroVerdict is the verdict of a fresh session.
func ZeroVerdict() domain.Verdict {
	return domain.Verdict{Keywords: []string{}}
}

type RiskBand string

const (
	RiskLow      RiskBand = "low"
	RiskElevated RiskBand = "elevated"
	RiskHigh     RiskBand = "high"
)

// Band classifies a probability the way the metrics panel colours it.
func Band(probability float64) RiskBand {
	switch {
	case probability >= 0.7:
		return RiskHigh
	case probability >= 0.5:
		return RiskElevated
	default:
		return RiskLow
	}
}
