package scenario

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/scam-harness/internal/domain"
	"github.com/PabloGalante/scam-harness/internal/observability"
)

const (
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultTurnInterval = 1500 * time.Millisecond
)

// Target is the session a scenario is replayed against.
type Target interface {
	// StartNew replaces the live session and returns the new id.
	StartNew(ctx context.Context) domain.SessionID
	// Configure sets language and channel, failing with domain.ErrStaleSession
	// if id is no longer live.
	Configure(ctx context.Context, id domain.SessionID, language, channel string) error
	// SendMessageFor sends on behalf of session id, failing with domain.ErrStaleSession
	// if id is no longer live.
	SendMessageFor(ctx context.Context, id domain.SessionID, text string, sender domain.Sender) error
}

// Scheduler runs delayed tasks keyed by session id. Tasks of a session can be
// cancelled as a group; scenario playback is built on top of it.
type Scheduler struct {
	settle   time.Duration
	interval time.Duration

	mu     sync.Mutex
	nextID uint64
	tasks  map[domain.SessionID]map[uint64]*time.Timer
	closed bool

	running sync.WaitGroup
}

type Option func(*Scheduler)

// WithSettleDelay sets the pause between the reset and the first scripted message.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.settle = d }
}

// WithTurnInterval sets the spacing between scripted messages.
func WithTurnInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		settle:   DefaultSettleDelay,
		interval: DefaultTurnInterval,
		tasks:    make(map[domain.SessionID]map[uint64]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule runs fn after delay unless the task is cancelled first.
// It returns false if the scheduler is closed.
func (s *Scheduler) Schedule(id domain.SessionID, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.nextID++
	taskID := s.nextID

	// Add before arming: a zero delay may fire before AfterFunc returns.
	s.running.Add(1)
	t := time.AfterFunc(delay, func() {
		defer s.running.Done()
		if !s.claim(id, taskID) {
			return
		}
		fn()
	})

	byID := s.tasks[id]
	if byID == nil {
		byID = make(map[uint64]*time.Timer)
		s.tasks[id] = byID
	}
	byID[taskID] = t
	return true
}

// claim removes a fired task from the table. A task that is no longer present
// was cancelled between firing and claiming and must not run.
func (s *Scheduler) claim(id domain.SessionID, taskID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.tasks[id]
	if !ok {
		return false
	}
	if _, ok := byID[taskID]; !ok {
		return false
	}
	delete(byID, taskID)
	if len(byID) == 0 {
		delete(s.tasks, id)
	}
	return true
}

// CancelSession drops every pending task of session id.
func (s *Scheduler) CancelSession(id domain.SessionID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelLocked(id)
}

// Cancel drops every pending task.
func (s *Scheduler) Cancel() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id := range s.tasks {
		n += s.cancelLocked(id)
	}
	return n
}

func (s *Scheduler) cancelLocked(id domain.SessionID) int {
	n := 0
	for _, t := range s.tasks[id] {
		if t.Stop() {
			s.running.Done()
		}
		n++
	}
	delete(s.tasks, id)
	return n
}

// Pending returns the number of armed tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, byID := range s.tasks {
		n += len(byID)
	}
	return n
}

// Close cancels all pending tasks, refuses new ones and waits for running tasks to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for id := range s.tasks {
		s.cancelLocked(id)
	}
	s.mu.Unlock()

	s.running.Wait()
}

// Play resets the session through t and replays sc: message i is sent
// SettleDelay + i*TurnInterval after the reset. Tasks left over from a previous
// scenario are cancelled first. It returns the session id the replay is bound to.
func (s *Scheduler) Play(ctx context.Context, t Target, sc domain.Scenario) (domain.SessionID, error) {
	log := observability.LoggerFromContext(ctx).With(zap.String("scenario", sc.Name))

	if n := s.Cancel(); n > 0 {
		log.Info("cancelled pending scripted sends", zap.Int("count", n))
	}

	id := t.StartNew(ctx)
	log = log.With(zap.String("session_id", string(id)))

	if err := t.Configure(ctx, id, sc.Language, sc.Channel); err != nil {
		if errors.Is(err, domain.ErrStaleSession) {
			return id, nil
		}
		return id, err
	}

	// Scripted sends outlive the caller's request but keep its values (request id).
	sendCtx := context.WithoutCancel(ctx)

	for i, m := range sc.Messages {
		sender := m.Sender
		if sender == "" {
			sender = domain.SenderScammer
		}
		text := m.Text
		turn := i

		delay := s.settle + time.Duration(i)*s.interval
		s.Schedule(id, delay, func() {
			err := t.SendMessageFor(sendCtx, id, text, sender)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrStaleSession):
				// session was replaced; the turn is dropped silently
			case errors.Is(err, domain.ErrNetworkFailure):
				log.Debug("scripted send failed", zap.Int("turn", turn), zap.Error(err))
			default:
				log.Warn("scripted send rejected", zap.Int("turn", turn), zap.Error(err))
			}
		})
	}

	log.Info("scenario scheduled",
		zap.Int("messages", len(sc.Messages)),
		zap.Duration("settle", s.settle),
		zap.Duration("interval", s.interval))

	return id, nil
}
