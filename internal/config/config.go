package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

type Config struct {
	Port string

	APIURL          string
	APIKey          string
	RequestTimeout  time.Duration
	UseMockDetector bool

	DefaultLanguage string
	DefaultChannel  string
	AutoMode        bool

	SettleDelay    time.Duration // pause between reset and the first scripted message
	TurnInterval   time.Duration // spacing of scripted messages
	AutoReplyDelay time.Duration // "thinking time" before the agent reply in auto mode

	ScenarioDir string

	LogLevel  string
	LogFormat string // "json" or "console"
}

const (
	defaultAPIURL = "http://localhost:8000"
)

// LoadDotEnv loads .env.local then .env from the working directory.
// Variables already set in the environment win, matching godotenv's behavior.
func LoadDotEnv() ([]string, error) {
	if isDotEnvDisabled() {
		return nil, nil
	}

	var loaded []string
	for _, p := range []string{".env.local", ".env"} {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

func isDotEnvDisabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("HARNESS_DOTENV"))) {
	case "0", "false", "off", "no":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvAny returns the first non-empty variable among keys.
func getEnvAny(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, v)
	}
	return d, nil
}

// Load reads all env vars and builds the config. Only malformed values fail here;
// callers apply their overrides and then call Validate.
// VITE_API_URL and VITE_API_KEY are honoured so an existing frontend .env keeps working.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("HARNESS_PORT", "8080"),

		APIURL:          strings.TrimRight(getEnvAny(defaultAPIURL, "HARNESS_API_URL", "VITE_API_URL"), "/"),
		APIKey:          getEnvAny("", "HARNESS_API_KEY", "VITE_API_KEY"),
		UseMockDetector: getBoolEnv("HARNESS_USE_MOCK_DETECTOR", false),

		DefaultLanguage: getEnv("HARNESS_DEFAULT_LANGUAGE", domain.DefaultLanguage),
		DefaultChannel:  getEnv("HARNESS_DEFAULT_CHANNEL", domain.DefaultChannel),
		AutoMode:        getBoolEnv("HARNESS_AUTO_MODE", false),

		ScenarioDir: getEnv("HARNESS_SCENARIO_DIR", ""),

		LogLevel:  getEnv("HARNESS_LOG_LEVEL", "info"),
		LogFormat: getEnv("HARNESS_LOG_FORMAT", "json"),
	}

	var err error
	durations := []struct {
		dst *time.Duration
		key string
		def time.Duration
	}{
		{&cfg.RequestTimeout, "HARNESS_REQUEST_TIMEOUT", 30 * time.Second},
		{&cfg.SettleDelay, "HARNESS_SETTLE_DELAY", 500 * time.Millisecond},
		{&cfg.TurnInterval, "HARNESS_TURN_INTERVAL", 1500 * time.Millisecond},
		{&cfg.AutoReplyDelay, "HARNESS_AUTO_REPLY_DELAY", time.Second},
	}
	for _, d := range durations {
		if *d.dst, err = getDurationEnv(d.key, d.def); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail on the first request.
func (c *Config) Validate() error {
	if !c.UseMockDetector {
		if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
			return fmt.Errorf("api url %q must start with http:// or https://", c.APIURL)
		}
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}
