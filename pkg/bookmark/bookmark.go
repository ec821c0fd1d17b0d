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

// Package bookmark provides typed views over an XBEL document.
//
// An XBEL document is an ordered tree of folder, bookmark and separator
// elements under an xbel root. This package never owns that tree: it hands
// out light values that point into a dom.Document owned by someone else
// (usually a manager.Manager).
//
// # Core Types
//
// Bookmark wraps a single element and exposes typed accessors:
//
//	b := root.AddNewBookmark("GitHub", "https://github.com", "")
//	b.SetDescription("code hosting")
//	b.SetMetaDataItem("ID", "42", bookmark.Overwrite)
//	fmt.Println(b.Address()) // "/0"
//
// Group is a Bookmark known to be a container (folder or xbel):
//
//	tools := root.CreateNewFolder("Tools")
//	for b := tools.First(); !b.IsNull(); b = tools.Next(b) {
//	    ...
//	}
//
// Traverse walks a group depth-first with an explicit stack, calling a
// Traverser for every entry.
//
// # Lifetime
//
// A Bookmark records the generation of its document when it is created.
// When the owner reparses the file the generation moves on and every older
// Bookmark turns stale: accessors answer with empty values, mutators do
// nothing and Err reports ErrStale. Callers should re-fetch entries from the
// manager after a reparse.
//
// # Addresses
//
// Positions in the tree are written as slash separated child indexes from
// the root, "/4/5/2". The root itself is "". Addresses name positions, not
// identities: inserting or removing an earlier sibling changes them.
package bookmark

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudygreybeard/xbel/pkg/dom"
)

// Element tags of the XBEL format.
const (
	TagXBEL      = "xbel"
	TagFolder    = "folder"
	TagBookmark  = "bookmark"
	TagSeparator = "separator"
	TagTitle     = "title"
	TagDesc      = "desc"
	TagInfo      = "info"
	TagMetadata  = "metadata"
)

// Metadata owners and the namespaces declared on the root element.
const (
	// OwnerFreedesktop holds icon and mime type.
	OwnerFreedesktop = "http://freedesktop.org"
	// MetadataOwner holds every other key this package reads or writes.
	MetadataOwner = "http://www.kde.org"

	NamespaceMime     = "http://www.freedesktop.org/standards/shared-mime-info"
	NamespaceBookmark = "http://www.freedesktop.org/standards/desktop-bookmarks"
)

// Well-known metadata keys.
const (
	KeyTimeAdded     = "time_added"
	KeyTimeVisited   = "time_visited"
	KeyVisitCount    = "visit_count"
	KeyShowInToolbar = "showintoolbar"
	KeyUDI           = "UDI"
	KeyID            = "ID"
	KeySystemItem    = "IsSystemItem"
	KeyHidden        = "IsHidden"
	KeyOnlyInApp     = "OnlyInApp"
)

var (
	// ErrNull is reported by a Bookmark that wraps no element.
	ErrNull = errors.New("null bookmark")
	// ErrStale is reported by a Bookmark whose document was reparsed.
	ErrStale = errors.New("stale bookmark: document was reloaded")
	// ErrCorruptTree is reported when an element has lost its link to the root.
	ErrCorruptTree = errors.New("corrupt bookmark tree")
)

// now is replaced in tests.
var now = time.Now

// MetaDataPolicy decides what SetMetaDataItem does with an existing value.
type MetaDataPolicy int

const (
	Overwrite MetaDataPolicy = iota
	DontOverwriteIfAlreadySet
)

// Bookmark is a non-owning view of one element. The zero value is null.
type Bookmark struct {
	doc *dom.Document
	id  dom.NodeID
	gen uint64
}

// New wraps an element of doc. Non-element ids produce a null Bookmark.
func New(doc *dom.Document, id dom.NodeID) Bookmark {
	if doc == nil || !doc.IsElement(id) {
		return Bookmark{}
	}
	return Bookmark{doc: doc, id: id, gen: doc.Generation()}
}

// Document returns the backing document.
func (b Bookmark) Document() *dom.Document { return b.doc }

// Node returns the backing element id, or dom.InvalidNode.
func (b Bookmark) Node() dom.NodeID {
	id, _ := b.node()
	return id
}

func (b Bookmark) node() (dom.NodeID, bool) {
	if b.doc == nil || b.gen != b.doc.Generation() || !b.doc.IsElement(b.id) {
		return dom.InvalidNode, false
	}
	return b.id, true
}

func (b Bookmark) wrap(id dom.NodeID) Bookmark {
	return New(b.doc, id)
}

// Err explains why a Bookmark is null, or returns nil.
func (b Bookmark) Err() error {
	switch {
	case b.doc == nil:
		return ErrNull
	case b.gen != b.doc.Generation():
		return ErrStale
	case !b.doc.IsElement(b.id):
		return ErrNull
	}
	return nil
}

// IsNull reports whether the Bookmark wraps no live element.
func (b Bookmark) IsNull() bool {
	_, ok := b.node()
	return !ok
}

func (b Bookmark) tag() string {
	id, ok := b.node()
	if !ok {
		return ""
	}
	return b.doc.Tag(id)
}

// IsGroup reports whether the element is a folder or the root.
func (b Bookmark) IsGroup() bool {
	t := b.tag()
	return t == TagFolder || t == TagXBEL
}

// IsSeparator reports whether the element is a separator.
func (b Bookmark) IsSeparator() bool {
	return b.tag() == TagSeparator
}

// HasParent reports whether the element is attached to a parent element.
func (b Bookmark) HasParent() bool {
	id, ok := b.node()
	return ok && b.doc.IsElement(b.doc.Parent(id))
}

// Equal reports whether both values wrap the same element.
func (b Bookmark) Equal(o Bookmark) bool {
	bid, bok := b.node()
	oid, ook := o.node()
	if !bok || !ook {
		return bok == ook
	}
	return b.doc == o.doc && bid == oid
}

// Text returns the title elided to DefaultElideWidth for display.
func (b Bookmark) Text() string {
	return Elide(b.FullText(), DefaultElideWidth)
}

// FullText returns the title with newlines folded into spaces.
func (b Bookmark) FullText() string {
	id, ok := b.node()
	if !ok {
		return ""
	}
	return collapseNewlines(b.doc.Text(b.doc.NamedChild(id, TagTitle, false)))
}

// SetFullText sets the title.
func (b Bookmark) SetFullText(s string) {
	id, ok := b.node()
	if !ok {
		return
	}
	title := b.doc.NamedChild(id, TagTitle, true)
	b.doc.SetText(title, normalizeTitle(s))
}

// URL returns the href as stored, percent-encoded.
func (b Bookmark) URL() string {
	id, ok := b.node()
	if !ok {
		return ""
	}
	return b.doc.Attribute(id, "href", "")
}

// PrettyURL returns the href with percent escapes decoded.
func (b Bookmark) PrettyURL() string {
	raw := b.URL()
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

// SetURL stores u percent-encoded.
func (b Bookmark) SetURL(u string) {
	id, ok := b.node()
	if !ok {
		return
	}
	b.doc.SetAttribute(id, "href", EncodeURL(u))
}

// EncodeURL returns u in the fully encoded form stored in href attributes.
// Strings that do not parse as URLs are escaped as a whole.
func EncodeURL(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return url.PathEscape(u)
	}
	return parsed.String()
}

// Description returns the desc child text.
func (b Bookmark) Description() string {
	id, ok := b.node()
	if !ok {
		return ""
	}
	return b.doc.Text(b.doc.NamedChild(id, TagDesc, false))
}

// SetDescription sets the desc child text.
func (b Bookmark) SetDescription(s string) {
	id, ok := b.node()
	if !ok {
		return
	}
	b.doc.SetText(b.doc.NamedChild(id, TagDesc, true), s)
}

// IsOpen reports whether a folder is unfolded.
func (b Bookmark) IsOpen() bool {
	id, ok := b.node()
	return ok && b.doc.Attribute(id, "folded", "") == "no"
}

// SetOpen sets the folded attribute.
func (b Bookmark) SetOpen(open bool) {
	id, ok := b.node()
	if !ok {
		return
	}
	b.doc.SetAttribute(id, "folded", yesNo(!open))
}

// ShowInToolbar reports the showintoolbar metadata flag.
func (b Bookmark) ShowInToolbar() bool {
	return b.MetaDataItem(KeyShowInToolbar) == "yes"
}

// SetShowInToolbar sets the showintoolbar metadata flag.
func (b Bookmark) SetShowInToolbar(show bool) {
	b.SetMetaDataItem(KeyShowInToolbar, yesNo(show), Overwrite)
}

// ParentGroup returns the containing group, or a null Group at the root.
func (b Bookmark) ParentGroup() Group {
	id, ok := b.node()
	if !ok {
		return Group{}
	}
	return Group{b.wrap(b.doc.Parent(id))}
}

// ToGroup converts to a Group when the element is a container.
func (b Bookmark) ToGroup() (Group, bool) {
	if !b.IsGroup() {
		return Group{}, false
	}
	return Group{b}, true
}

// Address returns the position of the element from the root. A chain of
// parents that does not end at the document root reports ErrCorruptTree.
func (b Bookmark) Address() (string, error) {
	id, ok := b.node()
	if !ok {
		return "", b.Err()
	}
	var positions []int
	for cur := id; cur != b.doc.Root() && b.doc.Tag(cur) != TagXBEL; {
		parent := b.doc.Parent(cur)
		if !b.doc.IsElement(parent) {
			return "", fmt.Errorf("%w: <%s> is detached from the root", ErrCorruptTree, b.doc.Tag(cur))
		}
		pos := Group{b.wrap(parent)}.IndexOf(b.wrap(cur))
		if pos < 0 {
			return "", fmt.Errorf("%w: <%s> is not a bookmark entry", ErrCorruptTree, b.doc.Tag(cur))
		}
		positions = append(positions, pos)
		cur = parent
	}
	var sb strings.Builder
	for i := len(positions) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(positions[i]))
	}
	return sb.String(), nil
}

// UpdateAccessMetadata records a visit: time_added is set once,
// time_visited always, and visit_count is incremented.
func (b Bookmark) UpdateAccessMetadata() {
	if b.IsNull() {
		return
	}
	ts := strconv.FormatInt(now().UTC().Unix(), 10)
	b.SetMetaDataItem(KeyTimeAdded, ts, DontOverwriteIfAlreadySet)
	b.SetMetaDataItem(KeyTimeVisited, ts, Overwrite)

	count, err := strconv.Atoi(b.MetaDataItem(KeyVisitCount))
	if err != nil {
		count = 0
	}
	b.SetMetaDataItem(KeyVisitCount, strconv.Itoa(count+1), Overwrite)
}

// TimeAdded parses the time_added metadata. Zero means unknown.
func (b Bookmark) TimeAdded() time.Time {
	return parseEpoch(b.MetaDataItem(KeyTimeAdded))
}

// TimeVisited parses the time_visited metadata. Zero means unknown.
func (b Bookmark) TimeVisited() time.Time {
	return parseEpoch(b.MetaDataItem(KeyTimeVisited))
}

func parseEpoch(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
