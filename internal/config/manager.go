package config

import (
	"bytes"
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "go.yaml.in/yaml/v3"

	"hwbot/pkg/logx"
)

// Manager loads the yaml file and watches it for changes. An empty path is
// valid: the manager then serves defaults and Watch is a no-op.
type Manager struct {
	path string
	log  logx.Logger

	mu  sync.RWMutex
	cfg *File

	// lastHash tracks the last committed file content so editors that fire
	// multiple write events without content changes don't cause redundant
	// reloads.
	lastHash uint64

	onChange func(*File)
}

func NewManager(path string, log logx.Logger) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{path: path, log: log}
}

// OnChange installs the reload callback. Set it before Watch.
func (m *Manager) OnChange(fn func(*File)) { m.onChange = fn }

// Load parses the file (or defaults when there is none) and commits it.
func (m *Manager) Load() (*File, error) {
	cfg, err := m.parse()
	if err != nil {
		return nil, err
	}
	m.commit(cfg)
	return cfg, nil
}

func (m *Manager) Get() *File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) parse() (*File, error) {
	if m.path == "" {
		return &File{}, nil
	}
	b, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, err
	}

	var cfg File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	// Reject unknown keys so typos surface on reload instead of silently
	// doing nothing.
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m *Manager) commit(cfg *File) {
	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = hashFile(cfg)
	m.mu.Unlock()
}

func hashFile(cfg *File) uint64 {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// Watch blocks until ctx is cancelled, re-parsing the file on change with a
// short debounce (editors write in multiple events). Parse failures keep the
// previous config.
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

	// Watch the directory: editors often replace the file (rename + create)
	// which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(m.path)); err != nil {
		return err
	}
	file := filepath.Base(m.path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() { m.reload() })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("config watch error", logx.Err(err))
		}
	}
}

func (m *Manager) reload() {
	cfg, err := m.parse()
	if err != nil {
		m.log.Warn("config reload failed; keeping previous", logx.Err(err), logx.String("path", m.path))
		return
	}

	h := hashFile(cfg)
	m.mu.RLock()
	unchanged := h != 0 && h == m.lastHash
	m.mu.RUnlock()
	if unchanged {
		return
	}

	m.commit(cfg)
	m.log.Info("config reloaded", logx.String("path", m.path))
	if m.onChange != nil {
		m.onChange(cfg)
	}
}
