package domain

import (
	"context"
	"encoding/json"
)

// DetectionClient defines how the harness talks to the remote Detection Service.
type DetectionClient interface {
	Detect(ctx context.Context, req DetectionRequest) (*DetectionResponse, error)
}

// RemoteSessions are the secondary endpoints of the Detection Service.
// Payloads are passed through untouched.
type RemoteSessions interface {
	GetSession(ctx context.Context, id SessionID) (json.RawMessage, error)
	ResetSession(ctx context.Context, id SessionID) (json.RawMessage, error)
}

// TimelineStore holds the ordered messages of the active session.
type TimelineStore interface {
	Append(msg Message)
	All() []Message
	Clear()
}

// LedgerStore holds the audit log of detection calls.
type LedgerStore interface {
	Record(entry LogEntry)
	All() []LogEntry
	Successes() int
	Clear()
}

// SessionStore tracks the live session. An id can only be created once.
type SessionStore interface {
	CreateSession(session *Session) error
	UpdateSession(session *Session) error
}
