package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	str2duration "github.com/xhit/go-str2duration/v2"
)

var validate = validator.New()

// debounceWindow coalesces rapid successive writes from the external GUI's
// editor into a single republish.
const debounceWindow = 250 * time.Millisecond

// Store holds the live configuration document and republishes a new
// snapshot whenever gui_config.json changes on disk. Readers call Snapshot
// once per request and observe that pinned value for the lifetime of the
// request, per the hot-reload design note.
type Store struct {
	path string
	log  zerolog.Logger

	current atomic.Pointer[Config]

	mu          sync.Mutex
	subscribers []chan *Config

	watcher *fsnotify.Watcher
}

// NewStore loads gui_config.json from path (writing Defaults() if absent)
// and starts watching it for changes.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{path: path, log: log}

	cfg, err := loadOrInit(path)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config_invalid: %w", err)
	}
	s.current.Store(cfg)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}
	s.watcher = watcher

	go s.watchLoop()
	return s, nil
}

func loadOrInit(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Defaults()
		b, merr := json.MarshalIndent(cfg, "", "  ")
		if merr != nil {
			return nil, merr
		}
		if merr := os.MkdirAll(filepath.Dir(path), 0o755); merr != nil {
			return nil, merr
		}
		if merr := os.WriteFile(path, b, 0o644); merr != nil {
			return nil, merr
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Snapshot returns the currently published configuration. The returned
// pointer is immutable; callers must not mutate it.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// Subscribe registers a channel that receives every newly published
// snapshot. The channel is never closed by Store.
func (s *Store) Subscribe() <-chan *Config {
	ch := make(chan *Config, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) publish(cfg *Config) {
	s.current.Store(cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- cfg:
		default:
		}
	}
}

func (s *Store) watchLoop() {
	var timer *time.Timer
	reload := func() {
		cfg, err := loadOrInit(s.path)
		if err != nil {
			s.log.Error().Err(err).Msg("config reload failed, keeping previous snapshot")
			return
		}
		if err := validate.Struct(cfg); err != nil {
			s.log.Error().Err(err).Msg("config reload produced an invalid document, keeping previous snapshot")
			return
		}
		s.publish(cfg)
		s.log.Info().Msg("config reloaded")
	}

	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, reload)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Error().Err(err).Msg("config watcher error")
		}
	}
}

// Close stops the filesystem watcher.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// ParsedRequestTimeout parses Network.RequestTimeout, falling back to 60s on a
// malformed value.
func (n Network) ParsedRequestTimeout() time.Duration {
	d, err := str2duration.ParseDuration(n.RequestTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
