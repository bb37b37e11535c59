package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const configFileName = "config.json"

// Manager keeps config.json and the running Config in step. A file edit
// that does not validate is logged and ignored; the previous config stays
// in force.
type Manager struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	cfg      Config
	written  []byte // last bytes this process wrote, used to ignore our own events
	watching bool
	onChange func(Config)
}

type managerOptions struct {
	path     string
	seed     *Config
	debounce time.Duration
	logger   *slog.Logger
}

type ManagerOption func(*managerOptions)

// NewManager opens the config file, creating it from the seed config (or
// the defaults) when it does not exist yet.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{debounce: 300 * time.Millisecond, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.path == "" {
		p, err := userConfigPath()
		if err != nil {
			return nil, err
		}
		o.path = p
	}
	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	m := &Manager{path: o.path, debounce: o.debounce, logger: o.logger}

	cfg, err := readConfig(o.path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		cfg = *DefaultConfigWithRoot(filepath.Dir(o.path))
		if o.seed != nil {
			cfg = *o.seed
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if err := m.save(cfg); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
	default:
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

// Get returns a copy of the current config.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) UpdateFromJSON(raw string) error {
	cfg := *DefaultConfigWithRoot(filepath.Dir(m.path))
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return m.Update(cfg)
}

// Update validates cfg, persists it and makes it current.
func (m *Manager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.save(cfg); err != nil {
		return err
	}
	m.set(cfg)
	return nil
}

// Watch follows config.json on disk and calls onChange with every accepted
// reload until ctx is done. Calling it again only swaps the callback.
func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
	m.mu.Lock()
	m.onChange = onChange
	already := m.watching
	m.watching = true
	m.mu.Unlock()
	if already {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		m.resetWatching()
		return err
	}
	// editors replace the file, so watch the directory rather than the inode
	if err := w.Add(filepath.Dir(m.path)); err != nil {
		w.Close()
		m.resetWatching()
		return fmt.Errorf("watch config dir: %w", err)
	}
	go m.follow(ctx, w)
	return nil
}

func (m *Manager) resetWatching() {
	m.mu.Lock()
	m.watching = false
	m.mu.Unlock()
}

func (m *Manager) follow(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	defer m.resetWatching()

	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(m.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle.Reset(m.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watcher error", "error", err)
		case <-settle.C:
			m.reload()
		}
	}
}

func (m *Manager) reload() {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		// a rename in progress; the Create event that follows retriggers us
		m.logger.Debug("config not readable yet", "path", m.path, "error", err)
		return
	}

	m.mu.RLock()
	own := bytes.Equal(raw, m.written)
	m.mu.RUnlock()
	if own {
		return
	}

	cfg, err := decodeConfig(m.path, raw)
	if err != nil {
		m.logger.Error("config reload failed", "path", m.path, "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Error("config rejected, keeping previous", "path", m.path, "error", err)
		return
	}

	prev := m.Get()
	m.logger.Info("config reloaded",
		"path", m.path,
		"account", cfg.Account,
		"cooldown_changed", prev.CooldownMinutes != cfg.CooldownMinutes,
		"interval_changed", prev.WatchIntervalSec != cfg.WatchIntervalSec,
	)
	m.set(cfg)
}

func (m *Manager) set(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()
	if cb != nil {
		cb(cfg)
	}
}

func (m *Manager) save(cfg Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	raw = append(raw, '\n')

	m.mu.Lock()
	m.written = raw
	m.mu.Unlock()
	return writeAtomic(m.path, raw)
}

// readConfig decodes path on top of the defaults, so keys an older file
// lacks keep their default values.
func readConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(path, raw)
}

func decodeConfig(path string, raw []byte) (Config, error) {
	cfg := *DefaultConfigWithRoot(filepath.Dir(path))
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

func writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(name, path)
}

func userConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		if dir, err = os.Getwd(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "CapitalGo", configFileName), nil
}

// WithConfigDir keeps config.json inside dir.
func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir != "" {
			o.path = filepath.Join(dir, configFileName)
		}
	}
}

func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.path = path
		}
	}
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithInitialConfig seeds a config file that does not exist yet.
func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) { o.seed = cfg }
}

func WithLogger(l *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
