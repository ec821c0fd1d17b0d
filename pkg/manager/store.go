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
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/dom"
)

const (
	toolbarCacheSuffix = ".toolbarcache"
	backupSuffix       = ".bak"
	doctype            = "xbel"
)

// Parse replaces the document with the content of the backing file.
//
// An unreadable file is logged and leaves the current document in place.
// A file without a root element gets an empty xbel root. The channel name
// stored in the file is adopted when the manager has none; when they
// differ the manager's name wins, and with Options.RewriteChannelName the
// file is saved right away.
func (m *Manager) Parse() error {
	m.loaded = true
	if m.IsTemp() {
		if m.doc.Root() == dom.InvalidNode {
			m.initEmpty()
		}
		return nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		m.logger.Warn().Err(err).Msg("cannot open bookmark file")
		if m.doc.Root() == dom.InvalidNode {
			m.initEmpty()
		}
		return fmt.Errorf("open %s: %w", m.path, err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		m.logger.Warn().Err(err).Msg("malformed bookmark file, keeping current document")
		if m.doc.Root() == dom.InvalidNode {
			m.initEmpty()
		}
		return fmt.Errorf("parse %s: %w", m.path, err)
	}

	var parseErr error
	if doc.Root() == dom.InvalidNode {
		m.logger.Warn().Msg("main tag is missing, creating default")
		doc.SetRoot(doc.CreateElement(bookmark.TagXBEL))
		parseErr = ErrNoRoot
	}

	root := doc.Root()
	rewrite := false
	switch stored := doc.Attribute(root, attrChannel, ""); {
	case m.channel == "":
		m.channel = stored
		if stored != "" && !m.external {
			m.mu.Lock()
			subscribed := m.sub != nil || m.closed
			m.mu.Unlock()
			if !subscribed {
				if err := m.reg.subscribe(m); err != nil {
					m.logger.Warn().Err(err).Msg("cannot listen for change notifications")
				}
			}
		}
	case stored != m.channel:
		doc.SetAttribute(root, attrChannel, m.channel)
		rewrite = stored != "" && m.opts.RewriteChannelName
	}

	m.doc.Replace(doc)
	m.toolbarDoc = nil
	m.index.invalidate()
	if n := bookmark.MigrateLegacyAttributes(m.Root()); n > 0 {
		m.logger.Debug().Int("entries", n).Msg("migrated legacy attributes to metadata")
	}

	if rewrite {
		m.logger.Info().Str("channel", m.channel).Msg("rewriting channel name in bookmark file")
		if err := m.Save(true); err != nil {
			return err
		}
	}
	return parseErr
}

// initEmpty installs a fresh document with the standard namespaces.
func (m *Manager) initEmpty() {
	doc := dom.NewWithRoot(bookmark.TagXBEL)
	root := doc.Root()
	doc.SetAttribute(root, "xmlns:mime", bookmark.NamespaceMime)
	doc.SetAttribute(root, "xmlns:bookmark", bookmark.NamespaceBookmark)
	doc.SetAttribute(root, "xmlns:kdepriv", NamespaceKDEPriv)
	if m.channel != "" {
		doc.SetAttribute(root, attrChannel, m.channel)
	}
	m.doc.Replace(doc)
	m.loaded = true
	m.toolbarDoc = nil
	m.index.invalidate()
}

// Save writes the document to the backing file.
func (m *Manager) Save(toolbarCache bool) error {
	if m.IsTemp() {
		return ErrNoPath
	}
	return m.SaveAs(m.path, toolbarCache)
}

// SaveAs writes the document to path, creating missing directories. The
// previous file, if any, is kept as path.bak. With toolbarCache the
// toolbar folder is also written to path.toolbarcache, unless the root is
// the toolbar or there is no toolbar folder, in which case a stale cache
// is removed.
func (m *Manager) SaveAs(path string, toolbarCache bool) error {
	if err := m.saveAs(path, toolbarCache); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrSaveFailed, path, err)
		m.reportSaveError(err)
		return err
	}
	return nil
}

func (m *Manager) saveAs(path string, toolbarCache bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	root := m.Root()

	var buf bytes.Buffer
	if err := m.doc.Serialize(&buf, dom.Options{Doctype: doctype}); err != nil {
		return err
	}
	if err := writeAtomic(path, buf.Bytes(), true); err != nil {
		return err
	}
	if path == m.path {
		m.mu.Lock()
		m.lastSaved = sha256.Sum256(buf.Bytes())
		m.mu.Unlock()
	}

	// the cache goes second so its mtime is newer than the main file
	m.writeToolbarCache(path+toolbarCacheSuffix, root, toolbarCache)

	m.logger.Debug().Str("file", path).Int("bytes", buf.Len()).Msg("saved bookmarks")
	return nil
}

func (m *Manager) writeToolbarCache(cachePath string, root bookmark.Group, enabled bool) {
	toolbar := root.FindToolbar()
	if !enabled || root.IsToolbarGroup() || toolbar.IsNull() {
		if err := os.Remove(cachePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn().Err(err).Msg("cannot remove stale toolbar cache")
		}
		return
	}
	var buf bytes.Buffer
	err := m.doc.SerializeNode(&buf, toolbar.Node(), dom.Options{})
	if err == nil {
		err = writeAtomic(cachePath, buf.Bytes(), false)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("cannot write toolbar cache")
	}
}

// reportSaveError surfaces the first failure of the registry to the
// OnError handlers and only logs the rest.
func (m *Manager) reportSaveError(err error) {
	if !m.reg.saveErrorReported.CompareAndSwap(false, true) {
		m.logger.Error().Err(err).Msg("save failed")
		return
	}
	m.logger.Error().Err(err).Msg("save failed, reporting")
	for _, h := range m.errorHandlerList() {
		h(err)
	}
}

// unchangedSinceSave reports whether the file still holds what m last
// wrote.
func (m *Manager) unchangedSinceSave() bool {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return sha256.Sum256(data) == m.lastSaved
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old or the new content. With
// backup an existing file is first copied to path.bak.
func writeAtomic(path string, data []byte, backup bool) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
		if backup {
			if err = copyFile(path, path+backupSuffix, mode); err != nil {
				return fmt.Errorf("backup: %w", err)
			}
		}
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func copyFile(src, dst string, mode fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}

// Toolbar returns the toolbar folder. Before the document is loaded the
// .toolbarcache sidecar is used when it is newer than the bookmark file.
// Without an explicit toolbar folder the root becomes the toolbar.
func (m *Manager) Toolbar() bookmark.Group {
	if !m.loaded && !m.IsTemp() {
		if g, ok := m.cachedToolbar(); ok {
			return g
		}
	}
	root := m.Root()
	if tb := root.FindToolbar(); !tb.IsNull() {
		return tb
	}
	root.SetToolbarGroup(true)
	return root
}

func (m *Manager) cachedToolbar() (bookmark.Group, bool) {
	if m.toolbarDoc == nil {
		cachePath := m.path + toolbarCacheSuffix
		main, err := os.Stat(m.path)
		if err != nil {
			return bookmark.Group{}, false
		}
		cache, err := os.Stat(cachePath)
		if err != nil || !cache.ModTime().After(main.ModTime()) {
			return bookmark.Group{}, false
		}
		f, err := os.Open(cachePath)
		if err != nil {
			return bookmark.Group{}, false
		}
		defer f.Close()
		doc, err := dom.Parse(f)
		if err != nil {
			m.logger.Warn().Err(err).Msg("ignoring unreadable toolbar cache")
			return bookmark.Group{}, false
		}
		m.toolbarDoc = doc
	}
	g := bookmark.NewGroup(m.toolbarDoc, m.toolbarDoc.Root())
	return g, !g.IsNull()
}
