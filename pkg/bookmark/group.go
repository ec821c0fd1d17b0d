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

package bookmark

import (
	"github.com/cloudygreybeard/xbel/pkg/dom"
)

// Group is a Bookmark whose element may hold folder, bookmark and separator
// children. Other children (title, info, desc) are skipped by iteration.
type Group struct {
	Bookmark
}

// NewGroup wraps a container element. Anything else yields a null Group.
func NewGroup(doc *dom.Document, id dom.NodeID) Group {
	g, _ := New(doc, id).ToGroup()
	return g
}

func isTracked(tag string) bool {
	return tag == TagFolder || tag == TagBookmark || tag == TagSeparator
}

// nextKnownTag returns start or the first sibling after (or before) it that
// is a tracked element.
func nextKnownTag(doc *dom.Document, start dom.NodeID, forward bool) dom.NodeID {
	for id := start; id != dom.InvalidNode; {
		if isTracked(doc.Tag(id)) {
			return id
		}
		if forward {
			id = doc.NextSiblingElement(id, "")
		} else {
			id = doc.PreviousSiblingElement(id, "")
		}
	}
	return dom.InvalidNode
}

// childID returns the element of x when x is a direct child of g.
func (g Group) childID(x Bookmark) (dom.NodeID, bool) {
	gid, ok := g.node()
	if !ok || x.doc != g.doc {
		return dom.InvalidNode, false
	}
	xid, ok := x.node()
	if !ok || g.doc.Parent(xid) != gid {
		return dom.InvalidNode, false
	}
	return xid, true
}

// First returns the first tracked child.
func (g Group) First() Bookmark {
	gid, ok := g.node()
	if !ok {
		return Bookmark{}
	}
	return g.wrap(nextKnownTag(g.doc, g.doc.FirstChildElement(gid, ""), true))
}

// Previous returns the tracked sibling before x, or null when x is the
// first child or not a child of g.
func (g Group) Previous(x Bookmark) Bookmark {
	xid, ok := g.childID(x)
	if !ok {
		return Bookmark{}
	}
	return g.wrap(nextKnownTag(g.doc, g.doc.PreviousSiblingElement(xid, ""), false))
}

// Next returns the tracked sibling after x, or null when x is the last
// child or not a child of g.
func (g Group) Next(x Bookmark) Bookmark {
	xid, ok := g.childID(x)
	if !ok {
		return Bookmark{}
	}
	return g.wrap(nextKnownTag(g.doc, g.doc.NextSiblingElement(xid, ""), true))
}

// IndexOf returns the position of child among the tracked children, or -1.
func (g Group) IndexOf(child Bookmark) int {
	i := 0
	for b := g.First(); !b.IsNull(); b = g.Next(b) {
		if b.Equal(child) {
			return i
		}
		i++
	}
	return -1
}

// Children returns the tracked children in order.
func (g Group) Children() []Bookmark {
	var out []Bookmark
	for b := g.First(); !b.IsNull(); b = g.Next(b) {
		out = append(out, b)
	}
	return out
}

func (g Group) appendNew(tag string) Bookmark {
	gid, ok := g.node()
	if !ok {
		return Bookmark{}
	}
	return g.wrap(g.doc.AppendChild(gid, g.doc.CreateElement(tag)))
}

// CreateNewFolder appends a folder titled title.
func (g Group) CreateNewFolder(title string) Group {
	b := g.appendNew(TagFolder)
	if b.IsNull() {
		return Group{}
	}
	b.SetFullText(title)
	return Group{b}
}

// CreateNewSeparator appends a separator.
func (g Group) CreateNewSeparator() Bookmark {
	return g.appendNew(TagSeparator)
}

// AddBookmark appends b. An entry from another document is deep-copied in
// and the copy is returned.
func (g Group) AddBookmark(b Bookmark) Bookmark {
	gid, ok := g.node()
	if !ok {
		return Bookmark{}
	}
	bid, ok := b.node()
	if !ok {
		return Bookmark{}
	}
	if b.doc != g.doc {
		bid = g.doc.ImportNode(b.doc, bid, true)
	}
	return g.wrap(g.doc.AppendChild(gid, bid))
}

// AddNewBookmark appends a bookmark. An empty icon is derived from url.
func (g Group) AddNewBookmark(text, url, icon string) Bookmark {
	b := g.appendNew(TagBookmark)
	if b.IsNull() {
		return b
	}
	b.SetFullText(text)
	b.SetURL(url)
	if icon == "" {
		icon = IconForURL(b.URL())
	}
	b.SetIcon(icon)
	return b
}

// MoveBookmark places item right after after. A null after moves item to
// the first tracked position, ahead of any leading title or info element.
func (g Group) MoveBookmark(item, after Bookmark) bool {
	gid, ok := g.node()
	if !ok || item.doc != g.doc {
		return false
	}
	iid, ok := item.node()
	if !ok {
		return false
	}

	if !after.IsNull() {
		aid, ok := g.childID(after)
		if !ok {
			return false
		}
		return g.doc.InsertAfter(gid, iid, aid) != dom.InvalidNode
	}

	first := nextKnownTag(g.doc, g.doc.FirstChildElement(gid, ""), true)
	switch first {
	case iid:
		return true
	case dom.InvalidNode:
		return g.doc.AppendChild(gid, iid) != dom.InvalidNode
	}
	return g.doc.InsertBefore(gid, iid, first) != dom.InvalidNode
}

// ReplaceBookmark puts a deep copy of with in the place of old, a child of
// g, and returns the copy.
func (g Group) ReplaceBookmark(old, with Bookmark) Bookmark {
	oid, ok := g.childID(old)
	if !ok {
		return Bookmark{}
	}
	wid, ok := with.node()
	if !ok {
		return Bookmark{}
	}
	cp := g.doc.ImportNode(with.doc, wid, true)
	if g.doc.ReplaceChild(g.id, cp, oid) == dom.InvalidNode {
		return Bookmark{}
	}
	return g.wrap(cp)
}

// DeleteBookmark removes b from g. The caller saves and notifies.
func (g Group) DeleteBookmark(b Bookmark) bool {
	bid, ok := g.childID(b)
	if !ok {
		return false
	}
	return g.doc.RemoveChild(g.id, bid) != dom.InvalidNode
}

// IsToolbarGroup reports toolbar="yes".
func (g Group) IsToolbarGroup() bool {
	gid, ok := g.node()
	return ok && g.doc.Attribute(gid, "toolbar", "") == "yes"
}

// SetToolbarGroup sets or clears toolbar="yes".
func (g Group) SetToolbarGroup(on bool) {
	gid, ok := g.node()
	if !ok {
		return
	}
	if on {
		g.doc.SetAttribute(gid, "toolbar", "yes")
		return
	}
	g.doc.RemoveAttribute(gid, "toolbar")
}

// FindToolbar returns the first folder, g included, marked as the toolbar
// in depth-first order, or a null Group.
func (g Group) FindToolbar() Group {
	gid, ok := g.node()
	if !ok {
		return Group{}
	}
	stack := []dom.NodeID{gid}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if g.doc.Attribute(id, "toolbar", "") == "yes" {
			return NewGroup(g.doc, id)
		}
		for c := g.doc.LastChild(id); c != dom.InvalidNode; c = g.doc.PreviousSibling(c) {
			if g.doc.Tag(c) == TagFolder {
				stack = append(stack, c)
			}
		}
	}
	return Group{}
}

// GroupURLList returns the URLs of the direct leaf children in order.
func (g Group) GroupURLList() []string {
	var urls []string
	for b := g.First(); !b.IsNull(); b = g.Next(b) {
		if b.IsGroup() || b.IsSeparator() {
			continue
		}
		urls = append(urls, b.URL())
	}
	return urls
}

// Clear removes every tracked child.
func (g Group) Clear() {
	for b := g.First(); !b.IsNull(); b = g.First() {
		if !g.DeleteBookmark(b) {
			return
		}
	}
}
