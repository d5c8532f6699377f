package domain

// Message is one entry of the session timeline (scammer or agent).
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// Session is the identity and settings of the active harness conversation.
// A new Session replaces the previous one wholesale.
type Session struct {
	ID        SessionID `json:"sessionId"`
	Language  string    `json:"language"`
	Channel   string    `json:"channel"`
	AutoMode  bool      `json:"autoMode"`
	StartedAt Timestamp `json:"startedAt"`
}

// Intelligence is the extraction payload returned by the Detection Service.
// Order is preserved as received.
type Intelligence struct {
	UPIIDs             []string `json:"upids"`
	BankAccounts       []string `json:"bankAccounts"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// HasIntel reports whether any hard artifact (UPI id, account, phone, link) was extracted.
func (i Intelligence) HasIntel() bool {
	return len(i.UPIIDs) > 0 || len(i.BankAccounts) > 0 || len(i.PhoneNumbers) > 0 || len(i.PhishingLinks) > 0
}

// Empty reports whether nothing at all was extracted, keywords included.
func (i Intelligence) Empty() bool {
	return !i.HasIntel() && len(i.SuspiciousKeywords) == 0
}

// Clone returns a deep copy with nil fields normalised to empty slices.
func (i Intelligence) Clone() Intelligence {
	return Intelligence{
		UPIIDs:             cloneStrings(i.UPIIDs),
		BankAccounts:       cloneStrings(i.BankAccounts),
		PhoneNumbers:       cloneStrings(i.PhoneNumbers),
		PhishingLinks:      cloneStrings(i.PhishingLinks),
		SuspiciousKeywords: cloneStrings(i.SuspiciousKeywords),
	}
}

// Verdict is derived locally from the service's boolean flag plus extracted intelligence.
type Verdict struct {
	ScamProbability float64  `json:"scamProbability"`
	Keywords        []string `json:"keywords"`
	AgentActive     bool     `json:"agentActive"`
}

// Scenario is a canned, immutable script replayed by the scheduler.
type Scenario struct {
	Name     string            `json:"name" yaml:"name"`
	Messages []ScriptedMessage `json:"messages" yaml:"messages"`
	Language string            `json:"language" yaml:"language"`
	Channel  string            `json:"channel" yaml:"channel"`
}

type ScriptedMessage struct {
	Sender Sender `json:"sender" yaml:"sender"`
	Text   string `json:"text" yaml:"text"`
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
