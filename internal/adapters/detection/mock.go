package detection

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

var (
	upiPattern     = regexp.MustCompile(`\b[\w.\-]{2,}@(?:ybl|okhdfcbank|okaxis|oksbi|okicici|paytm|upi|apl|ibl|axl)\b`)
	phonePattern   = regexp.MustCompile(`(?:\+91[\-\s]?)?\b[6-9]\d{9}\b`)
	linkPattern    = regexp.MustCompile(`https?://[^\s]+`)
	accountPattern = regexp.MustCompile(`\b\d{11,18}\b`)

	mockKeywords = []string{
		"urgent", "blocked", "verify", "otp", "cvv", "refund", "kyc",
		"click", "prize", "lottery", "won", "immediately", "account", "upi",
	}
)

// Mock is a local stand-in for the Detection Service, used in development
// when no remote endpoint is available. It extracts artifacts with regular
// expressions and always produces an agent reply once a scam is suspected.
type Mock struct {
	mu       sync.Mutex
	sessions map[domain.SessionID][]domain.Message
}

func NewMock() *Mock {
	return &Mock{sessions: make(map[domain.SessionID][]domain.Message)}
}

// Detect implements domain.DetectionClient.
func (m *Mock) Detect(ctx context.Context, in domain.DetectionRequest) (*domain.DetectionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[in.SessionID] = append(m.sessions[in.SessionID], in.Message)
	m.mu.Unlock()

	text := in.Message.Text
	phones := phonePattern.FindAllString(text, -1)
	intel := domain.Intelligence{
		UPIIDs:             nonNil(upiPattern.FindAllString(text, -1)),
		PhoneNumbers:       nonNil(phones),
		PhishingLinks:      nonNil(linkPattern.FindAllString(text, -1)),
		BankAccounts:       nonNil(without(accountPattern.FindAllString(text, -1), phones)),
		SuspiciousKeywords: matchKeywords(text),
	}

	detected := intel.HasIntel() || len(intel.SuspiciousKeywords) >= 2
	resp := &domain.DetectionResponse{
		ScamDetected:          detected,
		ExtractedIntelligence: intel,
	}
	if detected && in.Message.Sender == domain.SenderScammer {
		reply := mockReply(intel)
		resp.AgentResponse = &reply
	}
	return resp, nil
}

// GetSession implements domain.RemoteSessions.
func (m *Mock) GetSession(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	m.mu.Lock()
	msgs := m.sessions[id]
	m.mu.Unlock()

	return json.Marshal(map[string]any{
		"sessionId":    id,
		"messageCount": len(msgs),
		"messages":     msgs,
	})
}

// ResetSession implements domain.RemoteSessions.
func (m *Mock) ResetSession(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	return json.Marshal(map[string]any{"sessionId": id, "status": "reset"})
}

func matchKeywords(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, kw := range mockKeywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func mockReply(in domain.Intelligence) string {
	switch {
	case len(in.PhishingLinks) > 0:
		return "The link is not opening on my phone. Can you send the full details here?"
	case len(in.UPIIDs) > 0:
		return "Which UPI app should I use? Please confirm the ID again."
	case len(in.PhoneNumbers) > 0:
		return "I tried calling but it did not connect. Is there another number?"
	default:
		return "I am worried. What exactly do I need to do?"
	}
}

func without(items, drop []string) []string {
	var out []string
	for _, it := range items {
		skip := false
		for _, d := range drop {
			if strings.Contains(d, it) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, it)
		}
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
