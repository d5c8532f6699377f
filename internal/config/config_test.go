package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearHarnessEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HARNESS_PORT", "HARNESS_API_URL", "VITE_API_URL", "HARNESS_API_KEY", "VITE_API_KEY",
		"HARNESS_USE_MOCK_DETECTOR", "HARNESS_DEFAULT_LANGUAGE", "HARNESS_DEFAULT_CHANNEL",
		"HARNESS_AUTO_MODE", "HARNESS_SCENARIO_DIR", "HARNESS_LOG_LEVEL", "HARNESS_LOG_FORMAT",
		"HARNESS_REQUEST_TIMEOUT", "HARNESS_SETTLE_DELAY", "HARNESS_TURN_INTERVAL",
		"HARNESS_AUTO_REPLY_DELAY", "HARNESS_DOTENV",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearHarnessEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "English", cfg.DefaultLanguage)
	assert.Equal(t, "SMS", cfg.DefaultChannel)
	assert.False(t, cfg.AutoMode)
	assert.Equal(t, time.Second, cfg.AutoReplyDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.TurnInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Run("HARNESS_API_URL wins over VITE_API_URL", func(t *testing.T) {
		clearHarnessEnv(t)
		t.Setenv("VITE_API_URL", "http://vite:9000")
		t.Setenv("HARNESS_API_URL", "https://detector.example/")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://detector.example", cfg.APIURL)
	})

	t.Run("VITE_API_KEY is a fallback", func(t *testing.T) {
		clearHarnessEnv(t)
		t.Setenv("VITE_API_KEY", "frontend-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "frontend-key", cfg.APIKey)
	})

	t.Run("durations and flags", func(t *testing.T) {
		clearHarnessEnv(t)
		t.Setenv("HARNESS_TURN_INTERVAL", "250ms")
		t.Setenv("HARNESS_AUTO_MODE", "true")
		t.Setenv("HARNESS_USE_MOCK_DETECTOR", "1")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.TurnInterval)
		assert.True(t, cfg.AutoMode)
		assert.True(t, cfg.UseMockDetector)
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		clearHarnessEnv(t)
		t.Setenv("HARNESS_SETTLE_DELAY", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "HARNESS_SETTLE_DELAY")
	})

	t.Run("bad url", func(t *testing.T) {
		clearHarnessEnv(t)
		t.Setenv("HARNESS_API_URL", "localhost:8000")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad url is fine with the mock detector", func(t *testing.T) {
		clearHarnessEnv(t)
		t.Setenv("HARNESS_API_URL", "localhost:8000")

		cfg, err := Load()
		require.NoError(t, err)
		cfg.UseMockDetector = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearHarnessEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HARNESS_PORT=9191\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv does not override variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("HARNESS_PORT"))

	loaded, err := LoadDotEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{".env"}, loaded)
	assert.Equal(t, "9191", os.Getenv("HARNESS_PORT"))
	require.NoError(t, os.Unsetenv("HARNESS_PORT"))
}
