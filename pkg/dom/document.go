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

// Package dom provides the ordered element tree that backs an XBEL document.
//
// A Document is an arena: every node lives in a slice and is addressed by a
// NodeID. Links between nodes (parent, first/last child, siblings) are IDs
// into the same arena, so views over the tree are plain values that can be
// copied freely.
//
// Removed nodes stay in the arena, detached, until the document content is
// replaced. That keeps IDs held by callers pointing at real (if orphaned)
// nodes instead of at reused slots.
//
// Two counters describe change:
//
//   - Generation moves when the whole content is swapped by Replace (a
//     reparse). Views created before the swap are stale.
//   - Revision moves on every structural or attribute mutation. Derived
//     indexes use it to know when to rebuild.
//
// The package carries no bookmark rules; see package bookmark for those.
package dom

import "strings"

// NodeID identifies a node in the document arena.
type NodeID int32

// InvalidNode represents an invalid node reference.
const InvalidNode NodeID = -1

// Kind is the type of a node.
type Kind uint8

const (
	ElementNode Kind = iota + 1
	TextNode
)

// Attr is a single attribute. Name keeps the namespace prefix as written,
// e.g. "xmlns:mime".
type Attr struct {
	Name  string
	Value string
}

type node struct {
	kind   Kind
	name   string
	text   string
	attrs  []Attr
	parent NodeID
	first  NodeID
	last   NodeID
	prev   NodeID
	next   NodeID
}

// Document is an ordered tree of elements and text.
// It is not safe for concurrent mutation.
type Document struct {
	nodes      []node
	root       NodeID
	generation uint64
	revision   uint64
}

// New returns an empty document without a root element.
func New() *Document {
	return &Document{root: InvalidNode, generation: 1}
}

// NewWithRoot returns a document whose root element has the given tag.
func NewWithRoot(tag string) *Document {
	d := New()
	d.root = d.CreateElement(tag)
	return d
}

// Generation returns the content generation.
func (d *Document) Generation() uint64 {
	if d == nil {
		return 0
	}
	return d.generation
}

// Revision returns the mutation counter.
func (d *Document) Revision() uint64 {
	if d == nil {
		return 0
	}
	return d.revision
}

// Replace swaps in the content of other and bumps the generation.
// other must not be used afterwards.
func (d *Document) Replace(other *Document) {
	d.nodes = other.nodes
	d.root = other.root
	d.generation++
	d.revision++
	other.nodes = nil
	other.root = InvalidNode
}

// Root returns the document element.
func (d *Document) Root() NodeID {
	if d == nil {
		return InvalidNode
	}
	return d.root
}

// SetRoot makes id the document element. id is detached from any parent.
func (d *Document) SetRoot(id NodeID) {
	if !d.isElement(id) {
		return
	}
	d.detach(id)
	d.root = id
	d.revision++
}

// Valid reports whether id refers to a node of this document.
func (d *Document) Valid(id NodeID) bool {
	return d != nil && id >= 0 && int(id) < len(d.nodes)
}

func (d *Document) isElement(id NodeID) bool {
	return d.Valid(id) && d.nodes[id].kind == ElementNode
}

// IsElement reports whether id is an element node.
func (d *Document) IsElement(id NodeID) bool {
	return d.isElement(id)
}

// Kind returns the node kind, or zero for an invalid id.
func (d *Document) Kind(id NodeID) Kind {
	if !d.Valid(id) {
		return 0
	}
	return d.nodes[id].kind
}

// Tag returns the element tag name, or "" for text and invalid nodes.
func (d *Document) Tag(id NodeID) string {
	if !d.isElement(id) {
		return ""
	}
	return d.nodes[id].name
}

// CreateElement allocates a detached element.
func (d *Document) CreateElement(tag string) NodeID {
	return d.alloc(node{kind: ElementNode, name: tag})
}

// CreateText allocates a detached text node.
func (d *Document) CreateText(s string) NodeID {
	return d.alloc(node{kind: TextNode, text: s})
}

func (d *Document) alloc(n node) NodeID {
	n.parent, n.first, n.last, n.prev, n.next = InvalidNode, InvalidNode, InvalidNode, InvalidNode, InvalidNode
	d.nodes = append(d.nodes, n)
	return NodeID(len(d.nodes) - 1)
}

// Attribute returns the value of name, or def when it is not set.
func (d *Document) Attribute(id NodeID, name, def string) string {
	if !d.isElement(id) {
		return def
	}
	for _, a := range d.nodes[id].attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return def
}

// HasAttribute reports whether name is set on the element.
func (d *Document) HasAttribute(id NodeID, name string) bool {
	if !d.isElement(id) {
		return false
	}
	for _, a := range d.nodes[id].attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetAttribute sets or adds an attribute, keeping the original position
// of an existing one.
func (d *Document) SetAttribute(id NodeID, name, value string) {
	if !d.isElement(id) {
		return
	}
	n := &d.nodes[id]
	d.revision++
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// RemoveAttribute deletes an attribute if present.
func (d *Document) RemoveAttribute(id NodeID, name string) {
	if !d.isElement(id) {
		return
	}
	n := &d.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			d.revision++
			return
		}
	}
}

// Attributes returns a copy of the element's attributes in document order.
func (d *Document) Attributes(id NodeID) []Attr {
	if !d.isElement(id) {
		return nil
	}
	out := make([]Attr, len(d.nodes[id].attrs))
	copy(out, d.nodes[id].attrs)
	return out
}

// Parent returns the parent node.
func (d *Document) Parent(id NodeID) NodeID {
	if !d.Valid(id) {
		return InvalidNode
	}
	return d.nodes[id].parent
}

// FirstChild returns the first child node of any kind.
func (d *Document) FirstChild(id NodeID) NodeID {
	if !d.Valid(id) {
		return InvalidNode
	}
	return d.nodes[id].first
}

// LastChild returns the last child node of any kind.
func (d *Document) LastChild(id NodeID) NodeID {
	if !d.Valid(id) {
		return InvalidNode
	}
	return d.nodes[id].last
}

// NextSibling returns the next sibling of any kind.
func (d *Document) NextSibling(id NodeID) NodeID {
	if !d.Valid(id) {
		return InvalidNode
	}
	return d.nodes[id].next
}

// PreviousSibling returns the previous sibling of any kind.
func (d *Document) PreviousSibling(id NodeID) NodeID {
	if !d.Valid(id) {
		return InvalidNode
	}
	return d.nodes[id].prev
}

// FirstChildElement returns the first child element, restricted to tag
// unless tag is empty.
func (d *Document) FirstChildElement(id NodeID, tag string) NodeID {
	return d.scanElement(d.FirstChild(id), tag, true)
}

// NextSiblingElement returns the next sibling element, restricted to tag
// unless tag is empty.
func (d *Document) NextSiblingElement(id NodeID, tag string) NodeID {
	return d.scanElement(d.NextSibling(id), tag, true)
}

// PreviousSiblingElement returns the previous sibling element, restricted
// to tag unless tag is empty.
func (d *Document) PreviousSiblingElement(id NodeID, tag string) NodeID {
	return d.scanElement(d.PreviousSibling(id), tag, false)
}

func (d *Document) scanElement(start NodeID, tag string, forward bool) NodeID {
	for id := start; d.Valid(id); {
		n := &d.nodes[id]
		if n.kind == ElementNode && (tag == "" || n.name == tag) {
			return id
		}
		if forward {
			id = n.next
		} else {
			id = n.prev
		}
	}
	return InvalidNode
}

// NamedChild returns the first child element with the given tag. When none
// exists and create is true, a new element is appended and returned.
func (d *Document) NamedChild(id NodeID, tag string, create bool) NodeID {
	if !d.isElement(id) {
		return InvalidNode
	}
	if c := d.FirstChildElement(id, tag); c != InvalidNode {
		return c
	}
	if !create {
		return InvalidNode
	}
	return d.AppendChild(id, d.CreateElement(tag))
}

// Text returns the concatenated text content of a node and its descendants.
func (d *Document) Text(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	if d.nodes[id].kind == TextNode {
		return d.nodes[id].text
	}
	var sb strings.Builder
	stack := []NodeID{}
	for c := d.nodes[id].last; c != InvalidNode; c = d.nodes[c].prev {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &d.nodes[c]
		if n.kind == TextNode {
			sb.WriteString(n.text)
			continue
		}
		for cc := n.last; cc != InvalidNode; cc = d.nodes[cc].prev {
			stack = append(stack, cc)
		}
	}
	return sb.String()
}

// SetText replaces all children of an element with a single text node.
// An empty string leaves the element without children.
func (d *Document) SetText(id NodeID, s string) {
	if !d.isElement(id) {
		return
	}
	for c := d.nodes[id].first; c != InvalidNode; c = d.nodes[id].first {
		d.detach(c)
	}
	if s != "" {
		d.AppendChild(id, d.CreateText(s))
	}
	d.revision++
}

// AppendChild moves child to the end of parent's children.
// It returns child, or InvalidNode when the move is not possible.
func (d *Document) AppendChild(parent, child NodeID) NodeID {
	return d.insert(parent, child, InvalidNode, d.LastChild(parent))
}

// InsertBefore moves child in front of ref. A ref of InvalidNode appends.
func (d *Document) InsertBefore(parent, child, ref NodeID) NodeID {
	if ref == InvalidNode {
		return d.AppendChild(parent, child)
	}
	if d.Parent(ref) != parent {
		return InvalidNode
	}
	return d.insert(parent, child, ref, InvalidNode)
}

// InsertAfter moves child behind ref. A ref of InvalidNode prepends.
func (d *Document) InsertAfter(parent, child, ref NodeID) NodeID {
	if ref == InvalidNode {
		return d.InsertBefore(parent, child, d.FirstChild(parent))
	}
	if d.Parent(ref) != parent {
		return InvalidNode
	}
	return d.insert(parent, child, InvalidNode, ref)
}

// insert places child between after and before (exactly one of which is
// used as anchor; both invalid means parent has no children).
func (d *Document) insert(parent, child, before, after NodeID) NodeID {
	if !d.isElement(parent) || !d.Valid(child) {
		return InvalidNode
	}
	if child == before || child == after {
		// already in place
		return child
	}
	for p := parent; p != InvalidNode; p = d.nodes[p].parent {
		if p == child {
			return InvalidNode
		}
	}
	if child == d.root {
		return InvalidNode
	}
	d.detach(child)

	c := &d.nodes[child]
	c.parent = parent
	switch {
	case before != InvalidNode:
		c.next = before
		c.prev = d.nodes[before].prev
		if c.prev != InvalidNode {
			d.nodes[c.prev].next = child
		} else {
			d.nodes[parent].first = child
		}
		d.nodes[before].prev = child
	case after != InvalidNode:
		c.prev = after
		c.next = d.nodes[after].next
		if c.next != InvalidNode {
			d.nodes[c.next].prev = child
		} else {
			d.nodes[parent].last = child
		}
		d.nodes[after].next = child
	default:
		d.nodes[parent].first = child
		d.nodes[parent].last = child
	}
	d.revision++
	return child
}

// RemoveChild detaches child from parent and returns it.
func (d *Document) RemoveChild(parent, child NodeID) NodeID {
	if !d.Valid(child) || d.nodes[child].parent != parent || parent == InvalidNode {
		return InvalidNode
	}
	d.detach(child)
	d.revision++
	return child
}

// ReplaceChild puts newChild where oldChild was and detaches oldChild.
func (d *Document) ReplaceChild(parent, newChild, oldChild NodeID) NodeID {
	if d.Parent(oldChild) != parent || newChild == oldChild {
		return InvalidNode
	}
	if d.InsertBefore(parent, newChild, oldChild) == InvalidNode {
		return InvalidNode
	}
	return d.RemoveChild(parent, oldChild)
}

func (d *Document) detach(id NodeID) {
	n := &d.nodes[id]
	if n.parent == InvalidNode {
		return
	}
	p := &d.nodes[n.parent]
	if n.prev != InvalidNode {
		d.nodes[n.prev].next = n.next
	} else {
		p.first = n.next
	}
	if n.next != InvalidNode {
		d.nodes[n.next].prev = n.prev
	} else {
		p.last = n.prev
	}
	n.parent, n.prev, n.next = InvalidNode, InvalidNode, InvalidNode
}

// CloneNode copies a node. With deep set the whole subtree is copied.
// The clone is detached.
func (d *Document) CloneNode(id NodeID, deep bool) NodeID {
	return d.ImportNode(d, id, deep)
}

// ImportNode copies a node of src (which may be d itself) into d.
func (d *Document) ImportNode(src *Document, id NodeID, deep bool) NodeID {
	if !src.Valid(id) {
		return InvalidNode
	}
	type frame struct{ from, to NodeID }
	top := d.copyOne(src, id)
	if !deep {
		return top
	}
	stack := []frame{{id, top}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := src.nodes[f.from].first; c != InvalidNode; c = src.nodes[c].next {
			cc := d.copyOne(src, c)
			d.insert(f.to, cc, InvalidNode, d.nodes[f.to].last)
			stack = append(stack, frame{c, cc})
		}
	}
	return top
}

func (d *Document) copyOne(src *Document, id NodeID) NodeID {
	n := src.nodes[id]
	cp := node{kind: n.kind, name: n.name, text: n.text}
	if len(n.attrs) > 0 {
		cp.attrs = make([]Attr, len(n.attrs))
		copy(cp.attrs, n.attrs)
	}
	return d.alloc(cp)
}

// Equal reports whether the subtree at id equals the subtree at oid in
// other: same kinds, tags, text, attribute sets and children in order.
// Whitespace-only text beside element siblings is not compared.
func (d *Document) Equal(id NodeID, other *Document, oid NodeID) bool {
	if !d.Valid(id) || !other.Valid(oid) {
		return d.Valid(id) == other.Valid(oid)
	}
	type pair struct{ a, b NodeID }
	stack := []pair{{id, oid}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a, b := &d.nodes[p.a], &other.nodes[p.b]
		if a.kind != b.kind || a.name != b.name || a.text != b.text || !sameAttrs(a.attrs, b.attrs) {
			return false
		}
		ca, cb := d.content(a.first), other.content(b.first)
		for ca != InvalidNode && cb != InvalidNode {
			stack = append(stack, pair{ca, cb})
			ca, cb = d.content(d.nodes[ca].next), other.content(other.nodes[cb].next)
		}
		if ca != InvalidNode || cb != InvalidNode {
			return false
		}
	}
	return true
}

func sameAttrs(a, b []Attr) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x.Name == y.Name {
				found = x.Value == y.Value
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
