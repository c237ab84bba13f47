package config

import (
	"bytes"
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.yaml.in/yaml/v3"

	"kelasbot/pkg/logx"
)

// Manager owns the current config and hot-reloads it when the YAML file
// changes. The path may be empty, in which case only defaults + env apply
// and Watch is a no-op.
type Manager struct {
	path string

	mu  sync.RWMutex
	cfg *Config

	// subsMu guards the subscriber list so we never send on a channel
	// that is concurrently being closed in Unsubscribe.
	subsMu sync.Mutex
	subs   []chan *Config

	log logx.Logger

	// lastRaw tracks the last committed file content to skip redundant
	// publishes when the editor fires several write events.
	lastRaw []byte
}

func NewManager(path string, log logx.Logger) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{path: path, log: log}
}

// Load parses defaults, the YAML file (if present) and env overrides,
// and commits the result.
func (m *Manager) Load() (*Config, error) {
	cfg, raw, err := m.parse()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.cfg = cfg
	m.lastRaw = raw
	m.mu.Unlock()
	return cfg, nil
}

func (m *Manager) parse() (*Config, []byte, error) {
	cfg := Default()
	var raw []byte
	if m.path != "" {
		b, err := os.ReadFile(m.path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, nil, err
			}
			raw = b
		case os.IsNotExist(err):
			// config file is optional
		default:
			return nil, nil, err
		}
	}
	applyEnv(cfg)
	return cfg, raw, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Subscribe(buffer int) chan *Config {
	ch := make(chan *Config, buffer)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

func (m *Manager) Unsubscribe(ch chan *Config) {
	if ch == nil {
		return
	}
	m.subsMu.Lock()
	for i, s := range m.subs {
		if s == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			break
		}
	}
	m.subsMu.Unlock()
	close(ch)
}

func (m *Manager) publish(cfg *Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- cfg:
		default:
			// slow subscriber keeps only the freshest config
		}
	}
}

// Watch blocks until ctx is done, reloading the config on file changes.
// A broken edit is logged and skipped; the previous config stays active.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(m.path); err != nil {
		return err
	}

	// Editors often emit rename+create+write bursts; debounce with a
	// short timer before re-reading.
	var timer *time.Timer
	reload := make(chan struct{}, 1)
	kick := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(200*time.Millisecond, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				kick()
				// re-add after rename (atomic save)
				if ev.Op&fsnotify.Rename != 0 {
					_ = w.Add(m.path)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("config watcher error", logx.Err(err))
		case <-reload:
			cfg, raw, err := m.parse()
			if err != nil {
				m.log.Warn("config reload failed; keeping previous", logx.Err(err))
				continue
			}
			m.mu.Lock()
			unchanged := bytes.Equal(raw, m.lastRaw)
			if !unchanged {
				m.cfg = cfg
				m.lastRaw = raw
			}
			m.mu.Unlock()
			if unchanged {
				continue
			}
			m.log.Info("config reloaded", logx.String("path", m.path))
			m.publish(cfg)
		}
	}
}
