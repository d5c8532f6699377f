package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/scam-harness/internal/adapters/storage/memory"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

func TestTimelineStore_AppendKeepsOrder(t *testing.T) {
	s := memory.NewTimelineStore()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Append(domain.Message{Sender: domain.SenderScammer, Text: "one", Timestamp: base})
	s.Append(domain.Message{Sender: domain.SenderAgent, Text: "two", Timestamp: base.Add(time.Second)})
	s.Append(domain.Message{Sender: domain.SenderScammer, Text: "three", Timestamp: base.Add(2 * time.Second)})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Text)
	assert.Equal(t, "two", all[1].Text)
	assert.Equal(t, "three", all[2].Text)
}

func TestTimelineStore_TimestampsNeverDecrease(t *testing.T) {
	s := memory.NewTimelineStore()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Append(domain.Message{Text: "late", Timestamp: base})
	s.Append(domain.Message{Text: "early", Timestamp: base.Add(-time.Minute)})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, base, all[1].Timestamp)
}

func TestTimelineStore_AllIsACopy(t *testing.T) {
	s := memory.NewTimelineStore()
	s.Append(domain.Message{Text: "original"})

	all := s.All()
	all[0].Text = "mutated"

	assert.Equal(t, "original", s.All()[0].Text)
}

func TestTimelineStore_Clear(t *testing.T) {
	s := memory.NewTimelineStore()
	s.Append(domain.Message{Text: "x"})
	s.Clear()

	assert.Empty(t, s.All())
}
