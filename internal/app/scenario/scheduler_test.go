package scenario_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/scam-harness/internal/app/scenario"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

// fakeTarget records sends and gates them on the live session id.
type fakeTarget struct {
	mu       sync.Mutex
	live     domain.SessionID
	n        int
	language string
	channel  string
	sent     map[domain.SessionID][]string
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{sent: make(map[domain.SessionID][]string)}
}

func (f *fakeTarget) StartNew(ctx context.Context) domain.SessionID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	f.live = domain.SessionID(fmt.Sprintf("s-%d", f.n))
	return f.live
}

func (f *fakeTarget) Configure(ctx context.Context, id domain.SessionID, language, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.live {
		return domain.ErrStaleSession
	}
	f.language, f.channel = language, channel
	return nil
}

func (f *fakeTarget) SendMessageFor(ctx context.Context, id domain.SessionID, text string, sender domain.Sender) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.live {
		return domain.ErrStaleSession
	}
	f.sent[id] = append(f.sent[id], text)
	return nil
}

func (f *fakeTarget) sentFor(id domain.SessionID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[id]...)
}

func threeTurns() domain.Scenario {
	return domain.Scenario{
		Name:     "three",
		Language: "Hindi",
		Channel:  "WhatsApp",
		Messages: []domain.ScriptedMessage{
			{Sender: domain.SenderScammer, Text: "first"},
			{Sender: domain.SenderScammer, Text: "second"},
			{Text: "third"},
		},
	}
}

func TestScheduler_PlayReplaysInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := scenario.NewScheduler(
		scenario.WithSettleDelay(5*time.Millisecond),
		scenario.WithTurnInterval(10*time.Millisecond),
	)
	defer s.Close()
	target := newFakeTarget()

	id, err := s.Play(context.Background(), target, threeTurns())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(target.sentFor(id)) == 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"first", "second", "third"}, target.sentFor(id))
	assert.Equal(t, "Hindi", target.language)
	assert.Equal(t, "WhatsApp", target.channel)
	assert.Zero(t, s.Pending())
}

func TestScheduler_ReplayCancelsPreviousScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := scenario.NewScheduler(
		scenario.WithSettleDelay(time.Hour),
		scenario.WithTurnInterval(time.Hour),
	)
	defer s.Close()
	target := newFakeTarget()

	first, err := s.Play(context.Background(), target, threeTurns())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Pending())

	second, err := s.Play(context.Background(), target, threeTurns())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 3, s.Pending(), "only the second scenario stays armed")
}

func TestScheduler_OrphanedTasksAreNoOps(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := scenario.NewScheduler(
		scenario.WithSettleDelay(20*time.Millisecond),
		scenario.WithTurnInterval(5*time.Millisecond),
	)
	defer s.Close()
	target := newFakeTarget()

	old, err := s.Play(context.Background(), target, threeTurns())
	require.NoError(t, err)

	// reset behind the scheduler's back: the armed timers still fire
	fresh := target.StartNew(context.Background())

	require.Eventually(t, func() bool { return s.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, target.sentFor(old))
	assert.Empty(t, target.sentFor(fresh))
}

func TestScheduler_CancelSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := scenario.NewScheduler()
	defer s.Close()

	var ran atomic.Int32
	s.Schedule("a", time.Hour, func() { ran.Add(1) })
	s.Schedule("a", time.Hour, func() { ran.Add(1) })
	s.Schedule("b", time.Millisecond, func() { ran.Add(1) })

	assert.Equal(t, 2, s.CancelSession("a"))
	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, s.Pending())
}

func TestScheduler_CloseRejectsNewTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := scenario.NewScheduler()
	s.Schedule("a", time.Hour, func() {})
	s.Close()

	assert.Zero(t, s.Pending())
	assert.False(t, s.Schedule("a", time.Millisecond, func() {}))
}
