// Copyright 2026 cloudygreybeard
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudygreybeard/xbel/pkg/notify"
)

// DefaultWatchDebounce is how long the file watcher waits for writes to
// settle before reparsing.
const DefaultWatchDebounce = 200 * time.Millisecond

// Options configures every manager of a Registry.
type Options struct {
	Logger zerolog.Logger

	// Post runs notification and file-watch work. Nil runs it inline on
	// the transport's goroutine.
	Post func(func())

	// RewriteChannelName saves the file during Parse when its stored
	// channel name differs from the manager's.
	RewriteChannelName bool

	// NoToolbarCache makes EmitChanged save without the toolbar sidecar.
	NoToolbarCache bool

	// WatchDebounce defaults to DefaultWatchDebounce.
	WatchDebounce time.Duration
}

func (o Options) post(f func()) {
	if o.Post == nil {
		f()
		return
	}
	o.Post(f)
}

// Registry holds the live managers of a process, at most one per file.
// It is created by the program's entry point and passed to whoever needs
// managers.
type Registry struct {
	mu       sync.RWMutex
	managers []*Manager
	closed   bool

	processID string
	bus       notify.Channel
	ownsBus   bool
	opts      Options

	saveErrorReported atomic.Bool
}

// NewRegistry creates a registry publishing on bus. A nil bus gets an
// in-process LocalBus that Close shuts down; a given bus is left open.
func NewRegistry(bus notify.Channel, opts Options) *Registry {
	owns := bus == nil
	if owns {
		bus = notify.NewLocalBus()
	}
	if opts.WatchDebounce <= 0 {
		opts.WatchDebounce = DefaultWatchDebounce
	}
	return &Registry{
		processID: uuid.NewString(),
		bus:       bus,
		ownsBus:   owns,
		opts:      opts,
	}
}

// ProcessID identifies this registry as a sender on the bus.
func (r *Registry) ProcessID() string { return r.processID }

// Bus returns the notification channel.
func (r *Registry) Bus() notify.Channel { return r.bus }

// ManagerForFile returns the manager of path, creating it on first use.
// channel names the notification channel; "" adopts the name stored in
// the file. A missing file starts as an empty document.
func (r *Registry) ManagerForFile(path, channel string) (*Manager, error) {
	return r.getOrCreate(path, func(key string) (*Manager, error) {
		m := newManager(r, key, channel, false)
		if !fileExists(key) {
			m.initEmpty()
		}
		if err := r.subscribe(m); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// ManagerForExternalFile returns a manager for a file that other programs
// edit without using the bus. The file is watched and reparsed when it
// changes on disk.
func (r *Registry) ManagerForExternalFile(path string) (*Manager, error) {
	return r.getOrCreate(path, func(key string) (*Manager, error) {
		m := newManager(r, key, "", true)
		if !fileExists(key) {
			m.initEmpty()
		}
		w, err := watchFile(key, r.opts.WatchDebounce, m.logger, func() {
			r.opts.post(m.onFileChanged)
		})
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", key, err)
		}
		m.watcher = w
		return m, nil
	})
}

// CreateTempManager returns a new in-memory manager. It has no file and
// no channel, ignores notifications, and is never shared.
func (r *Registry) CreateTempManager() *Manager {
	m := newManager(r, "", "", false)
	m.initEmpty()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = append(r.managers, m)
	return m
}

// Managers returns a snapshot of the live managers.
func (r *Registry) Managers() []*Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Manager, len(r.managers))
	copy(out, r.managers)
	return out
}

// Close closes every manager, and the bus when the registry created it.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	managers := r.managers
	r.managers = nil
	r.mu.Unlock()

	var errs []error
	for _, m := range managers {
		errs = append(errs, m.Close())
	}
	if r.ownsBus {
		errs = append(errs, r.bus.Close())
	}
	return errors.Join(errs...)
}

func (r *Registry) lookupExisting(key string) *Manager {
	for _, m := range r.managers {
		if m.path == key {
			return m
		}
	}
	return nil
}

// getOrCreate looks path up under the read lock and only takes the write
// lock, checking again, when a manager has to be built.
func (r *Registry) getOrCreate(path string, create func(key string) (*Manager, error)) (*Manager, error) {
	key, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	m := r.lookupExisting(key)
	closed := r.closed
	r.mu.RUnlock()
	if m != nil {
		return m, nil
	}
	if closed {
		return nil, ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if m := r.lookupExisting(key); m != nil {
		return m, nil
	}
	m, err = create(key)
	if err != nil {
		return nil, err
	}
	r.managers = append(r.managers, m)
	m.logger.Debug().Bool("external", m.external).Str("channel", m.channel).Msg("manager created")
	return m, nil
}

func (r *Registry) subscribe(m *Manager) error {
	if m.channel == "" {
		return nil
	}
	sub, err := r.bus.Subscribe(m.channel, m.onMessage)
	if err != nil {
		return fmt.Errorf("subscribe to channel %s: %w", m.channel, err)
	}
	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()
	return nil
}

func (r *Registry) remove(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.managers {
		if x == m {
			r.managers = append(r.managers[:i], r.managers[i+1:]...)
			return
		}
	}
}

func canonicalPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty bookmark file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
