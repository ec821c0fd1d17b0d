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

// Package manager owns XBEL documents: it loads and saves bookmark files,
// resolves addresses, and keeps processes that share a file in sync.
//
// Managers are obtained from a Registry, which guarantees one Manager per
// file within a process. A Manager's document is not safe for concurrent
// use: every call that touches bookmarks must come from the goroutine that
// owns the manager. Notifications arriving from the bus or the file watcher
// are handed to Options.Post; pass an EventLoop's Post to run them on the
// owning goroutine.
package manager

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/dom"
	"github.com/cloudygreybeard/xbel/pkg/notify"
)

// NamespaceKDEPriv is declared on new documents next to the mime and
// bookmark namespaces.
const NamespaceKDEPriv = "http://www.kde.org/kdepriv"

// attrChannel stores the channel name on the root element.
const attrChannel = "dbusName"

var (
	// ErrSaveFailed wraps every save error.
	ErrSaveFailed = errors.New("unable to save bookmarks")
	// ErrNoPath is returned when saving a temporary manager.
	ErrNoPath = errors.New("manager has no backing file")
	// ErrNoRoot is reported when a parsed file had no root element.
	ErrNoRoot = errors.New("bookmark file has no root element")
	// ErrClosed is returned by a closed registry.
	ErrClosed = errors.New("registry closed")
)

// ChangedFunc receives the address of the group that changed ("" for the
// whole tree) and the caller that requested a reload, if any.
type ChangedFunc func(groupAddress, caller string)

// Manager owns one XBEL document and its backing file.
type Manager struct {
	reg      *Registry
	path     string
	channel  string
	external bool
	opts     Options
	logger   zerolog.Logger

	doc    *dom.Document
	loaded bool
	// toolbarDoc holds the parsed .toolbarcache sidecar.
	toolbarDoc *dom.Document
	index      urlIndex

	update atomic.Bool

	mu               sync.Mutex
	nextHandler      int
	changed          map[int]ChangedFunc
	bookmarksChanged map[int]func(groupAddress string)
	configChanged    map[int]func()
	errorHandlers    map[int]func(error)
	sub              notify.Subscription
	watcher          *fileWatcher
	lastSaved        [32]byte
	closed           bool
}

func newManager(reg *Registry, path, channel string, external bool) *Manager {
	m := &Manager{
		reg:              reg,
		path:             path,
		channel:          channel,
		external:         external,
		opts:             reg.opts,
		doc:              dom.New(),
		changed:          make(map[int]ChangedFunc),
		bookmarksChanged: make(map[int]func(string)),
		configChanged:    make(map[int]func()),
		errorHandlers:    make(map[int]func(error)),
	}
	ctx := m.opts.Logger.With().Str("component", "manager")
	if path != "" {
		ctx = ctx.Str("path", path)
	}
	m.logger = ctx.Logger()
	m.update.Store(path != "")
	return m
}

// Path returns the backing file, or "" for a temporary manager.
func (m *Manager) Path() string { return m.path }

// Channel returns the notification channel name.
func (m *Manager) Channel() string { return m.channel }

// IsExternal reports whether the manager watches its file for changes
// made by programs that do not use the notification bus.
func (m *Manager) IsExternal() bool { return m.external }

// IsTemp reports whether the manager has no backing file.
func (m *Manager) IsTemp() bool { return m.path == "" }

// Loaded reports whether the document has been parsed or created.
func (m *Manager) Loaded() bool { return m.loaded }

// Update reports whether the manager reacts to change notifications.
func (m *Manager) Update() bool { return m.update.Load() }

// SetUpdate turns reaction to change notifications on or off.
func (m *Manager) SetUpdate(on bool) { m.update.Store(on) }

// Document returns the backing document, loading it first.
func (m *Manager) Document() *dom.Document {
	m.ensureLoaded()
	return m.doc
}

func (m *Manager) ensureLoaded() {
	if !m.loaded {
		if err := m.Parse(); err != nil {
			m.logger.Debug().Err(err).Msg("parse on first access")
		}
	}
}

// Root returns the top-level group, parsing the file on first use.
func (m *Manager) Root() bookmark.Group {
	m.ensureLoaded()
	return bookmark.NewGroup(m.doc, m.doc.Root())
}

// FindByAddress resolves "/4/5/2". A trailing "+" is an append anchor: it
// selects the existing last child of the addressed group, after which new
// entries go, and is null for an empty group. It never names an empty
// insertion slot. Unresolvable addresses log a warning and return a null Bookmark.
func (m *Manager) FindByAddress(address string) bookmark.Bookmark {
	path, last, ok := bookmark.ParseAddress(address)
	if !ok {
		m.logger.Warn().Str("address", address).Msg("malformed bookmark address")
		return bookmark.Bookmark{}
	}

	result := m.Root().Bookmark
	for depth, n := range path {
		g, ok := result.ToGroup()
		if !ok {
			m.logger.Warn().Str("address", address).Int("depth", depth).Msg("address descends into a non-folder")
			return bookmark.Bookmark{}
		}
		bk := g.First()
		for i := 0; i < n && !bk.IsNull(); i++ {
			bk = g.Next(bk)
		}
		if bk.IsNull() {
			m.logger.Warn().Str("address", address).Int("depth", depth).Msg("bookmark address not found")
			return bk
		}
		result = bk
	}

	if !last {
		return result
	}
	g, ok := result.ToGroup()
	if !ok {
		m.logger.Warn().Str("address", address).Msg("append address on a non-folder")
		return bookmark.Bookmark{}
	}
	var tail bookmark.Bookmark
	for b := g.First(); !b.IsNull(); b = g.Next(b) {
		tail = b
	}
	return tail
}

// FindByURL returns every bookmark whose href equals url. Both sides are
// compared in EncodeURL form.
func (m *Manager) FindByURL(url string) []bookmark.Bookmark {
	m.ensureLoaded()
	return m.index.lookup(m.doc, m.Root(), bookmark.EncodeURL(url))
}

// UpdateAccessMetadata records a visit on every bookmark of url and
// reports whether there was one. The caller saves.
func (m *Manager) UpdateAccessMetadata(url string) bool {
	list := m.FindByURL(url)
	for _, b := range list {
		b.UpdateAccessMetadata()
	}
	return len(list) > 0
}

// EmitChanged saves, tells local listeners, then tells other processes
// sharing the channel. A null group means the root. The save error, if
// any, is returned after notifying.
func (m *Manager) EmitChanged(g bookmark.Group) error {
	address := ""
	if !g.IsNull() {
		if a, err := g.Address(); err == nil {
			address = a
		} else {
			m.logger.Warn().Err(err).Msg("changed group has no address")
		}
	}

	var saveErr error
	if !m.IsTemp() {
		saveErr = m.Save(!m.opts.NoToolbarCache)
	}
	for _, h := range m.bookmarksChangedHandlers() {
		h(address)
	}
	m.publish(notify.Message{Topic: notify.TopicBookmarksChanged, GroupAddress: address})
	return saveErr
}

// EmitConfigChanged tells every process on the channel to reload its
// configuration.
func (m *Manager) EmitConfigChanged() {
	m.publish(notify.Message{Topic: notify.TopicConfigChanged})
}

// RequestReload asks every process on the channel, this one included, to
// reparse the file.
func (m *Manager) RequestReload(caller string) {
	m.publish(notify.Message{Topic: notify.TopicCompleteChange, Caller: caller})
}

func (m *Manager) publish(msg notify.Message) {
	if m.channel == "" || m.reg.bus == nil {
		return
	}
	msg.Channel = m.channel
	msg.Sender = m.reg.processID
	if err := m.reg.bus.Publish(context.Background(), msg); err != nil {
		m.logger.Warn().Err(err).Str("topic", msg.Topic).Msg("publish notification")
	}
}

// onMessage runs on the transport's goroutine.
func (m *Manager) onMessage(msg notify.Message) {
	m.opts.post(func() {
		switch msg.Topic {
		case notify.TopicBookmarksChanged:
			m.NotifyChanged(msg.GroupAddress, msg.Sender)
		case notify.TopicConfigChanged:
			m.NotifyConfigChanged()
		case notify.TopicCompleteChange:
			m.NotifyCompleteChange(msg.Caller)
		default:
			m.logger.Debug().Str("topic", msg.Topic).Msg("ignoring unknown topic")
		}
	})
}

// NotifyCompleteChange reparses and reports that anything may have changed.
func (m *Manager) NotifyCompleteChange(caller string) {
	if !m.Update() {
		return
	}
	m.reparse()
	m.fireChanged("", caller)
}

// NotifyChanged handles a bookmarksChanged message. The file is reparsed
// only when another process sent it; changed fires either way.
func (m *Manager) NotifyChanged(groupAddress, sender string) {
	if !m.Update() {
		return
	}
	if sender != m.reg.processID {
		m.reparse()
	}
	m.fireChanged(groupAddress, "")
}

// NotifyConfigChanged reparses and fires the config-changed handlers.
func (m *Manager) NotifyConfigChanged() {
	if !m.Update() {
		return
	}
	m.reparse()
	for _, h := range m.configChangedHandlers() {
		h()
	}
}

func (m *Manager) reparse() {
	if m.IsTemp() {
		return
	}
	if err := m.Parse(); err != nil {
		m.logger.Warn().Err(err).Msg("reparse failed, keeping current document")
	}
}

// onFileChanged is called, through Post, by the file watcher.
func (m *Manager) onFileChanged() {
	if !m.Update() {
		return
	}
	if m.unchangedSinceSave() {
		m.logger.Debug().Msg("ignoring change caused by own save")
		return
	}
	m.logger.Debug().Msg("bookmark file changed on disk")
	m.reparse()
	m.fireChanged("", "")
}

func (m *Manager) fireChanged(address, caller string) {
	for _, h := range m.changedHandlers() {
		h(address, caller)
	}
}

// Close stops watching and listening and removes m from its registry.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sub, w := m.sub, m.watcher
	m.sub, m.watcher = nil, nil
	m.mu.Unlock()

	var errs []error
	if sub != nil {
		errs = append(errs, sub.Unsubscribe())
	}
	if w != nil {
		errs = append(errs, w.Close())
	}
	m.reg.remove(m)
	return errors.Join(errs...)
}

// OnChanged registers h for changes announced on the channel, this
// process's own EmitChanged included, and for reloads from disk. The returned func unregisters it.
func (m *Manager) OnChanged(h ChangedFunc) func() {
	return m.register(func(id int) { m.changed[id] = h }, func(id int) { delete(m.changed, id) })
}

// OnBookmarksChanged registers h for changes announced by EmitChanged in
// this process.
func (m *Manager) OnBookmarksChanged(h func(groupAddress string)) func() {
	return m.register(func(id int) { m.bookmarksChanged[id] = h }, func(id int) { delete(m.bookmarksChanged, id) })
}

// OnConfigChanged registers h for configuration change notifications.
func (m *Manager) OnConfigChanged(h func()) func() {
	return m.register(func(id int) { m.configChanged[id] = h }, func(id int) { delete(m.configChanged, id) })
}

// OnError registers h for the user-visible save failure. Only the first
// failure in a registry reaches handlers.
func (m *Manager) OnError(h func(error)) func() {
	return m.register(func(id int) { m.errorHandlers[id] = h }, func(id int) { delete(m.errorHandlers, id) })
}

func (m *Manager) register(add, del func(id int)) func() {
	m.mu.Lock()
	m.nextHandler++
	id := m.nextHandler
	add(id)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			del(id)
			m.mu.Unlock()
		})
	}
}

// The handler snapshots below are taken under lock and run after unlock,
// so handlers may register or unregister.

func (m *Manager) changedHandlers() []ChangedFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.changed)
}

func (m *Manager) bookmarksChangedHandlers() []func(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.bookmarksChanged)
}

func (m *Manager) configChangedHandlers() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.configChanged)
}

func (m *Manager) errorHandlerList() []func(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.errorHandlers)
}

// snapshot returns the handlers in registration order.
func snapshot[T any](handlers map[int]T) []T {
	ids := make([]int, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, handlers[id])
	}
	return out
}
