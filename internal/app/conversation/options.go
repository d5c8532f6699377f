package conversation

import (
	"time"

	"github.com/PabloGalante/scam-harness/internal/app/scenario"
)

// DefaultAutoReplyDelay is the "thinking time" before the agent reply appears in auto mode.
const DefaultAutoReplyDelay = time.Second

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the uuid generator used for session ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithAutoReplyDelay sets the agent reply delay used when auto mode is on.
func WithAutoReplyDelay(d time.Duration) Option {
	return func(s *Service) { s.autoReplyDelay = d }
}

// WithScheduler replaces the default scenario scheduler.
func WithScheduler(sch *scenario.Scheduler) Option {
	return func(s *Service) { s.scheduler = sch }
}

// WithCatalog replaces the built-in scenario catalog.
func WithCatalog(c *scenario.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithDefaults sets the language, channel and auto mode of the first session.
// Later sessions inherit the settings of the session they replace.
func WithDefaults(language, channel string, autoMode bool) Option {
	return func(s *Service) {
		if language != "" {
			s.defaults.Language = language
		}
		if channel != "" {
			s.defaults.Channel = channel
		}
		s.defaults.AutoMode = autoMode
	}
}
