package domain

// Metadata travels with every detection request.
type Metadata struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// DetectionRequest is the body of POST /api/detect-scam.
type DetectionRequest struct {
	SessionID           SessionID `json:"sessionId"`
	Message             Message   `json:"message"`
	ConversationHistory []Message `json:"conversationHistory"`
	Metadata            Metadata  `json:"metadata"`
}

// DetectionResponse is the answer of the Detection Service.
type DetectionResponse struct {
	ScamDetected          bool         `json:"scamDetected"`
	AgentResponse         *string      `json:"agentResponse"`
	ExtractedIntelligence Intelligence `json:"extractedIntelligence"`
}

// AgentReply returns the counter-agent reply, if the service produced one.
func (r *DetectionResponse) AgentReply() (string, bool) {
	if r == nil || r.AgentResponse == nil || *r.AgentResponse == "" {
		return "", false
	}
	return *r.AgentResponse, true
}

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// LogEntry is one audited call to the Detection Service.
type LogEntry struct {
	ID        string           `json:"id"`
	Seq       uint64           `json:"seq"`
	Timestamp Timestamp        `json:"timestamp"`
	Request   DetectionRequest `json:"request"`
	Response  LogResponse      `json:"response"`
}

// LogResponse is either the service payload or an error marker.
type LogResponse struct {
	Status string             `json:"status"`
	Data   *DetectionResponse `json:"data,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Succeeded reports whether the call resolved successfully.
func (e LogEntry) Succeeded() bool {
	return e.Response.Status == LogStatusSuccess
}

// Metrics are the derived figures shown next to the timeline and exported.
type Metrics struct {
	ScamProbability float64  `json:"scamProbability"`
	Keywords        []string `json:"keywords"`
	AgentActive     bool     `json:"agentActive"`
	TotalMessages   int      `json:"totalMessages"`
}

// Export is the one-shot snapshot of a session.
type Export struct {
	SessionID             SessionID    `json:"sessionId"`
	ExportedAt            Timestamp    `json:"exportedAt"`
	Session               Session      `json:"session"`
	Messages              []Message    `json:"messages"`
	Metrics               Metrics      `json:"metrics"`
	ExtractedIntelligence Intelligence `json:"extractedIntelligence"`
	APILogs               []LogEntry   `json:"apiLogs"`
}
