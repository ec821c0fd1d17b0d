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

// Package places keeps the file manager's places list: the system entries,
// the device entries, and its convergence with the desktop-wide shared
// bookmarks file.
package places

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/manager"
)

// SharedFileName is the desktop-wide places file under the XDG data home.
const SharedFileName = "user-places.xbel"

// IsSystemItem reports whether b belongs to the private set only: a seeded
// system place or a device entry.
func IsSystemItem(b bookmark.Bookmark) bool {
	return b.MetaDataItem(bookmark.KeySystemItem) == "true" || b.MetaDataItem(bookmark.KeyUDI) != ""
}

// sameBookmark is the loose match: equal URL or equal title.
func sameBookmark(a, b bookmark.Bookmark) bool {
	return a.URL() == b.URL() || a.FullText() == b.FullText()
}

// identical compares whole subtrees.
func identical(a, b bookmark.Bookmark) bool {
	return a.Document().Equal(a.Node(), b.Document(), b.Node())
}

// Reconciler keeps a private places manager and the shared places manager
// convergent. Changes on the shared side are integrated into the private
// set; changes on the private side are exported to the shared file.
type Reconciler struct {
	private *manager.Manager
	shared  *manager.Manager
	logger  zerolog.Logger

	mu  sync.Mutex
	off []func()
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// New wires the change handlers of both managers and brings them in line:
// a shared file that does not exist yet is created from the private set,
// otherwise the shared entries are integrated.
func New(private, shared *manager.Manager, opts ...Option) *Reconciler {
	r := &Reconciler{
		private: private,
		shared:  shared,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With().Str("component", "places").Logger()

	r.off = append(r.off,
		private.OnChanged(func(string, string) { r.syncToShared() }),
		private.OnBookmarksChanged(func(string) { r.syncToShared() }),
		shared.OnChanged(func(string, string) { r.syncFromShared() }),
		shared.OnBookmarksChanged(func(string) { r.syncFromShared() }),
	)

	if sharedMissing(shared) {
		r.syncToShared()
	} else {
		r.syncFromShared()
	}
	return r
}

func sharedMissing(m *manager.Manager) bool {
	if m.IsTemp() {
		return false
	}
	_, err := os.Stat(m.Path())
	return errors.Is(err, fs.ErrNotExist)
}

func (r *Reconciler) syncFromShared() {
	if !r.IntegrateSharedBookmarks() {
		return
	}
	r.logger.Debug().Msg("shared places integrated")
	if err := r.private.EmitChanged(bookmark.Group{}); err != nil {
		r.logger.Warn().Err(err).Msg("cannot save places")
	}
}

func (r *Reconciler) syncToShared() {
	if !r.ExportSharedBookmarks() {
		return
	}
	r.logger.Debug().Msg("places exported to shared file")
	if err := r.shared.EmitChanged(bookmark.Group{}); err != nil {
		r.logger.Warn().Err(err).Msg("cannot save shared places")
	}
}

// IntegrateSharedBookmarks makes the private non-system entries follow the
// shared ones, favouring the shared side. System entries are left where
// they are. It reports whether the private set changed.
func (r *Reconciler) IntegrateSharedBookmarks() bool {
	root := r.private.Root()
	sharedRoot := r.shared.Root()

	dirty := false
	b := root.First()
	s := sharedRoot.First()
	for !b.IsNull() {
		if IsSystemItem(b) {
			b = root.Next(b)
			continue
		}
		if s.IsNull() || !sameBookmark(b, s) {
			gone := b
			b = root.Next(b)
			root.DeleteBookmark(gone)
			dirty = true
			continue
		}
		if !identical(b, s) {
			next := root.Next(b)
			root.ReplaceBookmark(b, s)
			b = next
			s = sharedRoot.Next(s)
			dirty = true
			continue
		}
		b = root.Next(b)
		s = sharedRoot.Next(s)
	}
	for ; !s.IsNull(); s = sharedRoot.Next(s) {
		root.AddBookmark(s)
		dirty = true
	}
	return dirty
}

// ExportSharedBookmarks rewrites the shared set from the private
// non-system entries when the two differ in length, order or content. It
// reports whether the shared set changed.
func (r *Reconciler) ExportSharedBookmarks() bool {
	root := r.private.Root()
	sharedRoot := r.shared.Root()

	var own []bookmark.Bookmark
	for b := root.First(); !b.IsNull(); b = root.Next(b) {
		if !IsSystemItem(b) {
			own = append(own, b)
		}
	}

	shared := sharedRoot.Children()
	if len(shared) == len(own) {
		same := true
		for i := range own {
			if !sameBookmark(own[i], shared[i]) || !identical(own[i], shared[i]) {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}

	sharedRoot.Clear()
	for _, b := range own {
		sharedRoot.AddBookmark(b)
	}
	return true
}

// Close detaches the reconciler from both managers.
func (r *Reconciler) Close() {
	r.mu.Lock()
	off := r.off
	r.off = nil
	r.mu.Unlock()
	for _, f := range off {
		f()
	}
}
