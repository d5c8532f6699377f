package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/scam-harness/internal/domain"
	"github.com/PabloGalante/scam-harness/internal/observability"
)

// reloadDebounce groups the burst of events editors produce on save.
const reloadDebounce = 200 * time.Millisecond

// Catalog is the set of scenarios that can be replayed: the built-ins plus
// any YAML files found in an optional directory. Files override built-ins
// with the same name.
type Catalog struct {
	mu        sync.RWMutex
	scenarios map[string]domain.Scenario
}

// NewCatalog returns a catalog holding only the built-in scenarios.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.scenarios = builtinMap()
	return c
}

func builtinMap() map[string]domain.Scenario {
	m := make(map[string]domain.Scenario, len(builtins))
	for _, sc := range builtins {
		m[sc.Name] = Clone(sc)
	}
	return m
}

// Get returns a copy of the named scenario.
func (c *Catalog) Get(name string) (domain.Scenario, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sc, ok := c.scenarios[name]
	if !ok {
		return domain.Scenario{}, fmt.Errorf("%q: %w", name, domain.ErrScenarioNotFound)
	}
	return Clone(sc), nil
}

// Names returns the scenario names in lexical order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.scenarios))
	for n := range c.scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every scenario ordered by name.
func (c *Catalog) All() []domain.Scenario {
	names := c.Names()
	out := make([]domain.Scenario, 0, len(names))
	for _, n := range names {
		if sc, err := c.Get(n); err == nil {
			out = append(out, sc)
		}
	}
	return out
}

// LoadDir replaces the file-backed scenarios with the *.yaml / *.yml files of dir.
// It returns the number of scenarios read from disk.
func (c *Catalog) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read scenario dir: %w", err)
	}

	next := builtinMap()
	n := 0
	for _, e := range entries {
		if e.IsDir() || !isScenarioFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		sc, err := ParseFile(path)
		if err != nil {
			return 0, err
		}
		next[sc.Name] = sc
		n++
	}

	c.mu.Lock()
	c.scenarios = next
	c.mu.Unlock()

	return n, nil
}

// Watch reloads the directory whenever a scenario file changes. It blocks until ctx is done.
// A broken file is logged and leaves the previous catalog in place.
func (c *Catalog) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	log := observability.LoggerFromContext(ctx).With(zap.String("scenario_dir", dir))
	log.Info("watching scenario directory")

	var (
		timer  *time.Timer
		reload = make(chan struct{}, 1)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isScenarioFile(ev.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			n, err := c.LoadDir(dir)
			if err != nil {
				log.Warn("scenario reload failed", zap.Error(err))
				continue
			}
			log.Info("scenarios reloaded", zap.Int("from_files", n))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("scenario watcher error", zap.Error(err))
		}
	}
}

type fileScenario struct {
	Name     string                   `yaml:"name"`
	Language string                   `yaml:"language"`
	Channel  string                   `yaml:"channel"`
	Messages []domain.ScriptedMessage `yaml:"messages"`
}

// ParseFile reads one scenario from a YAML file. The name defaults to the file name
// without extension; sender defaults to scammer.
func ParseFile(path string) (domain.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var f fileScenario
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return domain.Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	sc := domain.Scenario{
		Name:     f.Name,
		Messages: f.Messages,
		Language: f.Language,
		Channel:  f.Channel,
	}
	if err := Validate(&sc); err != nil {
		return domain.Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Validate fills defaults and rejects scenarios that cannot be replayed.
func Validate(sc *domain.Scenario) error {
	if len(sc.Messages) == 0 {
		return errors.New("no messages")
	}
	for i := range sc.Messages {
		m := &sc.Messages[i]
		if m.Sender == "" {
			m.Sender = domain.SenderScammer
		}
		if !m.Sender.Valid() {
			return fmt.Errorf("message %d: unknown sender %q", i, m.Sender)
		}
		if m.Sender == domain.SenderScammer && strings.TrimSpace(m.Text) == "" {
			return fmt.Errorf("message %d: empty text", i)
		}
	}
	if sc.Language == "" {
		sc.Language = domain.DefaultLanguage
	}
	if sc.Channel == "" {
		sc.Channel = domain.DefaultChannel
	}
	return nil
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Clone returns sc with its own copy of the message slice.
func Clone(sc domain.Scenario) domain.Scenario {
	msgs := make([]domain.ScriptedMessage, len(sc.Messages))
	copy(msgs, sc.Messages)
	sc.Messages = msgs
	return sc
}
