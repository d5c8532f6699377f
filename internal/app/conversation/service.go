package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/scam-harness/internal/app/intel"
	"github.com/PabloGalante/scam-harness/internal/app/scenario"
	"github.com/PabloGalante/scam-harness/internal/domain"
	"github.com/PabloGalante/scam-harness/internal/observability"
)

const maxSessionIDAttempts = 3

// ErrRemoteSessionsUnsupported is returned when the detector has no session endpoints.
var ErrRemoteSessionsUnsupported = errors.New("detector does not expose remote sessions")

// Service is the session orchestrator: it owns the live session, forwards
// messages to the Detection Service and merges the answers back into the
// timeline, ledger, verdict and intelligence snapshot.
//
// All transitions run under one mutex; no lock is held while a detection call
// is in flight, so calls from different goroutines overlap freely.
type Service struct {
	detector  domain.DetectionClient
	remote    domain.RemoteSessions
	sessions  domain.SessionStore
	timeline  domain.TimelineStore
	ledger    domain.LedgerStore
	intel     *intel.Aggregator
	scheduler *scenario.Scheduler
	catalog   *scenario.Catalog

	now            func() time.Time
	newID          func() string
	autoReplyDelay time.Duration
	defaults       domain.Session

	mu       sync.Mutex
	session  domain.Session
	verdict  domain.Verdict
	notice   string
	inFlight int
	seq      uint64
	version  uint64
	state    State
	subs     map[int]chan State
	nextSub  int
	closed   bool

	baseCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewService(
	detector domain.DetectionClient,
	sessionStore domain.SessionStore,
	timelineStore domain.TimelineStore,
	ledgerStore domain.LedgerStore,
	opts ...Option,
) *Service {
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Service{
		detector:       detector,
		sessions:       sessionStore,
		timeline:       timelineStore,
		ledger:         ledgerStore,
		intel:          intel.NewAggregator(),
		now:            time.Now,
		newID:          uuid.NewString,
		autoReplyDelay: DefaultAutoReplyDelay,
		defaults: domain.Session{
			Language: domain.DefaultLanguage,
			Channel:  domain.DefaultChannel,
		},
		subs:    make(map[int]chan State),
		baseCtx: baseCtx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = scenario.NewScheduler()
	}
	if s.catalog == nil {
		s.catalog = scenario.NewCatalog()
	}
	// one adapter usually implements both interfaces
	if rs, ok := detector.(domain.RemoteSessions); ok {
		s.remote = rs
	}

	s.mu.Lock()
	s.session = s.defaults
	s.resetLocked()
	s.mu.Unlock()

	return s
}

// SessionID returns the id of the live session.
func (s *Service) SessionID() domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.ID
}

// StartNew replaces the live session: new id, empty timeline, ledger and
// intelligence, zero verdict. Pending scheduled work of the old session is
// cancelled and in-flight answers for it will be dropped.
func (s *Service) StartNew(ctx context.Context) domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.session.ID
	if n := s.scheduler.CancelSession(old); n > 0 {
		observability.LoggerFromContext(ctx).Debug("cancelled pending tasks",
			zap.String("session_id", string(old)), zap.Int("count", n))
	}

	s.resetLocked()

	observability.LoggerFromContext(ctx).Info("session started",
		zap.String("session_id", string(s.session.ID)),
		zap.String("previous_session_id", string(old)))

	return s.session.ID
}

// resetLocked installs a fresh session that inherits the current settings.
func (s *Service) resetLocked() {
	next := s.session
	next.StartedAt = s.now()
	for attempt := 1; ; attempt++ {
		next.ID = domain.SessionID(s.newID())
		log := observability.WithFields(zap.String("session_id", string(next.ID)), zap.Int("attempt", attempt))
		err := s.sessions.CreateSession(&next)
		if err == nil {
			log.Debug("session registered", zap.String("language", next.Language), zap.String("channel", next.Channel))
			break
		}
		if !errors.Is(err, domain.ErrSessionExists) || attempt == maxSessionIDAttempts {
			log.Error("could not register session", zap.Error(err))
			break
		}
		log.Warn("session id collision", zap.Error(err))
	}

	s.session = next
	s.timeline.Clear()
	s.ledger.Clear()
	s.intel.Reset()
	s.verdict = intel.ZeroVerdict()
	s.notice = ""
	s.publishLocked()
}

// SendMessage sends text as sender on behalf of the live session.
func (s *Service) SendMessage(ctx context.Context, text string, sender domain.Sender) error {
	return s.send(ctx, "", text, sender)
}

// SendMessageFor is SendMessage bound to session id. It fails with
// domain.ErrStaleSession, without touching any state, if id is no longer live.
func (s *Service) SendMessageFor(ctx context.Context, id domain.SessionID, text string, sender domain.Sender) error {
	if id == "" {
		return fmt.Errorf("send message: empty session id: %w", domain.ErrInvalidInput)
	}
	return s.send(ctx, id, text, sender)
}

func (s *Service) send(ctx context.Context, bound domain.SessionID, text string, sender domain.Sender) error {
	if err := validate(text, sender); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("send message: service closed")
	}
	if bound != "" && bound != s.session.ID {
		s.mu.Unlock()
		return domain.ErrStaleSession
	}

	sess := s.session
	history := s.timeline.All()
	msg := domain.Message{Sender: sender, Text: text, Timestamp: s.now()}
	if n := len(history); n > 0 && msg.Timestamp.Before(history[n-1].Timestamp) {
		msg.Timestamp = history[n-1].Timestamp
	}
	s.timeline.Append(msg)
	s.seq++
	seq := s.seq
	s.inFlight++
	s.publishLocked()
	s.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With(
		zap.String("session_id", string(sess.ID)),
		zap.String("sender", string(sender)),
		zap.Uint64("seq", seq),
	)
	log.Info("sending message", zap.Int("history_len", len(history)))

	req := domain.DetectionRequest{
		SessionID:           sess.ID,
		Message:             msg,
		ConversationHistory: history,
		Metadata: domain.Metadata{
			Channel:  sess.Channel,
			Language: sess.Language,
			Locale:   domain.Locale,
		},
	}

	callCtx, release := s.bind(ctx)
	start := s.now()
	resp, err := s.detector.Detect(callCtx, req)
	release()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	if s.session.ID != sess.ID {
		// the session was replaced while the call was in flight
		log.Debug("dropping answer for replaced session")
		s.publishLocked()
		return domain.ErrStaleSession
	}

	entry := domain.LogEntry{
		ID:        uuid.NewString(),
		Seq:       seq,
		Timestamp: start,
		Request:   req,
	}

	if err != nil {
		if errors.Is(err, domain.ErrNotSent) {
			log.Error("detection request not sent", zap.Error(err))
			s.notice = "Could not build detection request: " + err.Error()
			s.publishLocked()
			return fmt.Errorf("send message: %w", err)
		}
		if !errors.Is(err, domain.ErrNetworkFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrNetworkFailure, err)
		}

		log.Warn("detection call failed", zap.Error(err))
		entry.Response = domain.LogResponse{Status: domain.LogStatusError, Error: err.Error()}
		s.ledger.Record(entry)
		s.notice = "Detection service call failed: " + err.Error()
		s.publishLocked()
		return fmt.Errorf("send message: %w", err)
	}
	if resp == nil {
		resp = &domain.DetectionResponse{}
	}

	entry.Response = domain.LogResponse{Status: domain.LogStatusSuccess, Data: resp}
	s.ledger.Record(entry)

	if sender == domain.SenderScammer {
		s.verdict = intel.DeriveVerdict(resp.ScamDetected, resp.ExtractedIntelligence)
	}
	s.intel.Update(resp.ExtractedIntelligence)
	s.notice = ""

	log.Info("detection answer merged",
		zap.Bool("scam_detected", resp.ScamDetected),
		zap.Float64("scam_probability", s.verdict.ScamProbability))

	if reply, ok := resp.AgentReply(); ok {
		// Auto mode only changes when the reply shows up, never whether it does.
		if sess.AutoMode && s.autoReplyDelay > 0 {
			s.scheduler.Schedule(sess.ID, s.autoReplyDelay, func() {
				s.appendAgentReply(sess.ID, reply)
			})
		} else {
			s.timeline.Append(domain.Message{Sender: domain.SenderAgent, Text: reply, Timestamp: s.now()})
		}
	}

	s.publishLocked()
	return nil
}

func validate(text string, sender domain.Sender) error {
	if !sender.Valid() {
		return fmt.Errorf("unknown sender %q: %w", sender, domain.ErrInvalidInput)
	}
	if sender == domain.SenderScammer && strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}
	return nil
}

// appendAgentReply is the delayed half of an auto-mode reply.
func (s *Service) appendAgentReply(id domain.SessionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.session.ID != id {
		return
	}
	s.timeline.Append(domain.Message{Sender: domain.SenderAgent, Text: text, Timestamp: s.now()})
	s.publishLocked()
}

// bind derives a context that is also cancelled when the service closes.
func (s *Service) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// SetLanguage changes the language sent with future requests.
func (s *Service) SetLanguage(language string) error {
	return s.update(func(sess *domain.Session) error {
		if strings.TrimSpace(language) == "" {
			return fmt.Errorf("empty language: %w", domain.ErrInvalidInput)
		}
		sess.Language = language
		return nil
	})
}

// SetChannel changes the channel sent with future requests.
func (s *Service) SetChannel(channel string) error {
	return s.update(func(sess *domain.Session) error {
		if strings.TrimSpace(channel) == "" {
			return fmt.Errorf("empty channel: %w", domain.ErrInvalidInput)
		}
		sess.Channel = channel
		return nil
	})
}

// SetAutoMode toggles the delayed agent reply.
func (s *Service) SetAutoMode(on bool) error {
	return s.update(func(sess *domain.Session) error {
		sess.AutoMode = on
		return nil
	})
}

// Configure sets language and channel of session id, if it is still live.
func (s *Service) Configure(ctx context.Context, id domain.SessionID, language, channel string) error {
	return s.update(func(sess *domain.Session) error {
		if sess.ID != id {
			return domain.ErrStaleSession
		}
		if language != "" {
			sess.Language = language
		}
		if channel != "" {
			sess.Channel = channel
		}
		return nil
	})
}

func (s *Service) update(fn func(*domain.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.session
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.sessions.UpdateSession(&next); err != nil {
		return err
	}
	s.session = next
	s.publishLocked()
	return nil
}

// Scenarios lists the replayable scenarios.
func (s *Service) Scenarios() []domain.Scenario {
	return s.catalog.All()
}

// Catalog exposes the scenario catalog so callers can load or watch files.
func (s *Service) Catalog() *scenario.Catalog {
	return s.catalog
}

// PlayScenario replays the named catalog scenario on a fresh session.
func (s *Service) PlayScenario(ctx context.Context, name string) (domain.SessionID, error) {
	sc, err := s.catalog.Get(name)
	if err != nil {
		return "", err
	}
	return s.Play(ctx, sc)
}

// Play replays sc on a fresh session. sc itself is left untouched.
func (s *Service) Play(ctx context.Context, sc domain.Scenario) (domain.SessionID, error) {
	sc = scenario.Clone(sc)
	if err := scenario.Validate(&sc); err != nil {
		return "", fmt.Errorf("scenario %q: %w: %w", sc.Name, domain.ErrInvalidInput, err)
	}
	return s.scheduler.Play(ctx, s, sc)
}

// PendingTurns reports how many scheduled actions are still armed.
func (s *Service) PendingTurns() int {
	return s.scheduler.Pending()
}

// Export returns a snapshot of the live session. It never changes state.
func (s *Service) Export() domain.Export {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	return domain.Export{
		SessionID:  st.Session.ID,
		ExportedAt: s.now(),
		Session:    st.Session,
		Messages:   st.Messages,
		Metrics: domain.Metrics{
			ScamProbability: st.Verdict.ScamProbability,
			Keywords:        st.Verdict.Keywords,
			AgentActive:     st.Verdict.AgentActive,
			TotalMessages:   len(st.Messages),
		},
		ExtractedIntelligence: st.Intelligence,
		APILogs:               st.Ledger,
	}
}

// RemoteSession fetches the Detection Service's view of the live session.
func (s *Service) RemoteSession(ctx context.Context) (json.RawMessage, error) {
	if s.remote == nil {
		return nil, ErrRemoteSessionsUnsupported
	}
	ctx, release := s.bind(ctx)
	defer release()
	return s.remote.GetSession(ctx, s.SessionID())
}

// ResetRemoteSession asks the Detection Service to forget the live session.
// Local state is not touched.
func (s *Service) ResetRemoteSession(ctx context.Context) (json.RawMessage, error) {
	if s.remote == nil {
		return nil, ErrRemoteSessionsUnsupported
	}
	ctx, release := s.bind(ctx)
	defer release()
	return s.remote.ResetSession(ctx, s.SessionID())
}

// Close cancels in-flight calls and pending timers and closes subscriber channels.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.scheduler.Close()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	})
}
