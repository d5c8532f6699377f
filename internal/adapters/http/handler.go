package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/scam-harness/internal/app/conversation"
	"github.com/PabloGalante/scam-harness/internal/app/intel"
	"github.com/PabloGalante/scam-harness/internal/domain"
	"github.com/PabloGalante/scam-harness/internal/observability"
)

type Server struct {
	svc          *conversation.Service
	pingInterval time.Duration
}

type Option func(*Server)

// WithPingInterval sets how often the state stream pings idle clients.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

func NewServer(svc *conversation.Service, opts ...Option) http.Handler {
	s := &Server{svc: svc, pingInterval: defaultPingInterval}
	for _, opt := range opts {
		opt(s)
	}
	if s.pingInterval <= 0 {
		s.pingInterval = defaultPingInterval
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/messages", s.handleSendMessage)
	mux.HandleFunc("POST /api/session/new", s.handleNewSession)
	mux.HandleFunc("PATCH /api/settings", s.handleSettings)
	mux.HandleFunc("GET /api/scenarios", s.handleScenarios)
	mux.HandleFunc("POST /api/scenarios/{name}/play", s.handlePlayScenario)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/remote-session", s.handleRemoteSession)
	mux.HandleFunc("POST /api/remote-session/reset", s.handleRemoteReset)
	mux.HandleFunc("GET /api/stream", s.handleStream)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sendMessageRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
}

type settingsRequest struct {
	Language *string `json:"language,omitempty"`
	Channel  *string `json:"channel,omitempty"`
	AutoMode *bool   `json:"autoMode,omitempty"`
}

type sessionResponse struct {
	SessionID domain.SessionID   `json:"sessionId"`
	State     conversation.State `json:"state"`
}

type scenarioResponse struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Channel  string `json:"channel"`
	Messages int    `json:"messages"`
	Preview  string `json:"preview"`
}

type playResponse struct {
	SessionID domain.SessionID `json:"sessionId"`
	Scenario  string           `json:"scenario"`
	Messages  int              `json:"messages"`
}

type optionsResponse struct {
	Languages []string       `json:"languages"`
	Channels  []string       `json:"channels"`
	Bands     []bandResponse `json:"riskBands"`
}

type bandResponse struct {
	Band intel.RiskBand `json:"band"`
	Min  float64        `json:"min"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessionId": s.svc.SessionID(),
		"options": optionsResponse{
			Languages: domain.Languages,
			Channels:  domain.Channels,
			Bands: []bandResponse{
				{Band: intel.RiskHigh, Min: 0.7},
				{Band: intel.RiskElevated, Min: 0.5},
				{Band: intel.RiskLow, Min: 0},
			},
		},
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sender := domain.SenderScammer
	if req.Sender != "" {
		sender = domain.Sender(strings.ToLower(strings.TrimSpace(req.Sender)))
	}

	// A failed detection call still lands in the timeline and ledger, so the
	// client gets the state together with the error.
	err := s.svc.SendMessage(r.Context(), req.Text, sender)
	if err != nil && !errors.Is(err, domain.ErrNetworkFailure) {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, s.svc.State())
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id := s.svc.StartNew(r.Context())
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, State: s.svc.State()})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Language == nil && req.Channel == nil && req.AutoMode == nil {
		badRequest(w, "nothing to update")
		return
	}

	if req.Language != nil {
		if err := s.svc.SetLanguage(*req.Language); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Channel != nil {
		if err := s.svc.SetChannel(*req.Channel); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.AutoMode != nil {
		if err := s.svc.SetAutoMode(*req.AutoMode); err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, s.svc.State().Session)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	all := s.svc.Scenarios()
	out := make([]scenarioResponse, 0, len(all))
	for _, sc := range all {
		out = append(out, toScenarioResponse(sc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlayScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		badRequest(w, "scenario name is required")
		return
	}

	sc, err := s.svc.Catalog().Get(name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.svc.Play(r.Context(), sc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, playResponse{
		SessionID: id,
		Scenario:  sc.Name,
		Messages:  len(sc.Messages),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exp := s.svc.Export()

	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="honeypot-session-%s.json"`, exp.SessionID))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(exp)
}

func (s *Server) handleRemoteSession(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.RemoteSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) handleRemoteReset(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.ResetRemoteSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toScenarioResponse(sc domain.Scenario) scenarioResponse {
	var preview string
	if len(sc.Messages) > 0 {
		preview = sc.Messages[0].Text
		if r := []rune(preview); len(r) > 80 {
			preview = string(r[:80]) + "..."
		}
	}
	return scenarioResponse{
		Name:     sc.Name,
		Language: sc.Language,
		Channel:  sc.Channel,
		Messages: len(sc.Messages),
		Preview:  preview,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrScenarioNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrStaleSession):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session was replaced"})
	case errors.Is(err, domain.ErrNetworkFailure):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.Is(err, conversation.ErrRemoteSessionsUnsupported):
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	default:
		internalError(w, r, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path), zap.Error(err))

	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
