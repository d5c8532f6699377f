package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/scam-harness/internal/adapters/storage/memory"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

func TestSessionStore_UpdateWithoutSession(t *testing.T) {
	s := memory.NewSessionStore()

	err := s.UpdateSession(&domain.Session{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrStaleSession)
}

func TestSessionStore_IDsAreNeverReused(t *testing.T) {
	s := memory.NewSessionStore()

	require.NoError(t, s.CreateSession(&domain.Session{ID: "a"}))
	require.NoError(t, s.CreateSession(&domain.Session{ID: "b"}))

	err := s.CreateSession(&domain.Session{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrSessionExists)

	// the failed create did not displace b
	assert.NoError(t, s.UpdateSession(&domain.Session{ID: "b"}))
}

func TestSessionStore_UpdateOnlyTouchesLiveSession(t *testing.T) {
	s := memory.NewSessionStore()
	require.NoError(t, s.CreateSession(&domain.Session{ID: "a", Language: "English"}))
	require.NoError(t, s.CreateSession(&domain.Session{ID: "b", Language: "English"}))

	err := s.UpdateSession(&domain.Session{ID: "a", Language: "Hindi"})
	assert.ErrorIs(t, err, domain.ErrStaleSession)

	assert.NoError(t, s.UpdateSession(&domain.Session{ID: "b", Language: "Tamil"}))
}
