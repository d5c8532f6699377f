package domain

import "time"

type SessionID string

// Sender identifies who authored a message in the timeline.
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderAgent   Sender = "agent"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderScammer || s == SenderAgent
}

// Locale sent with every detection request.
const Locale = "IN"

const (
	DefaultLanguage = "English"
	DefaultChannel  = "SMS"
)

// Languages and Channels offered by the harness controls.
var (
	Languages = []string{"English", "Hindi", "Tamil", "Telugu", "Malayalam"}
	Channels  = []string{"SMS", "WhatsApp", "Email", "Chat"}
)

type Timestamp = time.Time
