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

package dom

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Header is written in front of every serialized document.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

// ParseError describes malformed XML input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("xml parse error at line %d: %s", e.Line, e.Msg)
}

// Parse reads an XML document. Namespace prefixes are kept verbatim in
// element and attribute names. Comments, directives, processing
// instructions are dropped, as is whitespace-only text inside an element
// that has element children. An input without any
// element yields a document whose Root is InvalidNode.
func Parse(r io.Reader) (*Document, error) {
	d := New()
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var stack []NodeID
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return nil, &ParseError{Line: line, Msg: err.Error()}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			id := d.CreateElement(rawName(t.Name))
			for _, a := range t.Attr {
				d.nodes[id].attrs = append(d.nodes[id].attrs, Attr{Name: rawName(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if d.root != InvalidNode {
					line, _ := dec.InputPos()
					return nil, &ParseError{Line: line, Msg: "multiple root elements"}
				}
				d.root = id
			} else {
				d.AppendChild(stack[len(stack)-1], id)
			}
			stack = append(stack, id)

		case xml.EndElement:
			if len(stack) == 0 || d.nodes[stack[len(stack)-1]].name != rawName(t.Name) {
				line, _ := dec.InputPos()
				return nil, &ParseError{Line: line, Msg: "unexpected end element </" + rawName(t.Name) + ">"}
			}
			d.dropIndentation(stack[len(stack)-1])
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			// merge with a preceding text node (entity boundaries split CharData)
			if last := d.nodes[parent].last; last != InvalidNode && d.nodes[last].kind == TextNode {
				d.nodes[last].text += string(t)
				continue
			}
			d.AppendChild(parent, d.CreateText(string(t)))
		}
	}
	if len(stack) != 0 {
		line, _ := dec.InputPos()
		return nil, &ParseError{Line: line, Msg: "unexpected end of input"}
	}
	d.revision = 0
	return d, nil
}

// dropIndentation removes whitespace-only text from an element with
// element children. A text-only element keeps its text as is.
func (d *Document) dropIndentation(id NodeID) {
	var blank []NodeID
	for c := d.nodes[id].first; c != InvalidNode; c = d.nodes[c].next {
		if d.layout(c) {
			blank = append(blank, c)
		}
	}
	for _, c := range blank {
		d.detach(c)
	}
}

// layout reports whether id is whitespace-only text next to element
// siblings. Such text is not part of the content: parsing drops it and
// serializing and Equal skip it.
func (d *Document) layout(id NodeID) bool {
	n := &d.nodes[id]
	if n.kind != TextNode || n.parent == InvalidNode || strings.TrimSpace(n.text) != "" {
		return false
	}
	return d.FirstChildElement(n.parent, "") != InvalidNode
}

// content returns id or the first following sibling that is not layout.
func (d *Document) content(id NodeID) NodeID {
	for id != InvalidNode && d.layout(id) {
		id = d.nodes[id].next
	}
	return id
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Options controls serialization.
type Options struct {
	// Doctype, when set, emits <!DOCTYPE Doctype> after the header.
	Doctype string
	// Indent is the per-level indentation. Empty means one space.
	Indent string
}

// Serialize writes the document with the XML header.
func (d *Document) Serialize(w io.Writer, opts Options) error {
	return d.serializeNode(w, d.root, opts)
}

// SerializeNode writes the subtree at id as a standalone document.
func (d *Document) SerializeNode(w io.Writer, id NodeID, opts Options) error {
	return d.serializeNode(w, id, opts)
}

func (d *Document) serializeNode(w io.Writer, id NodeID, opts Options) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	bw.WriteByte('\n')
	if opts.Doctype != "" {
		bw.WriteString("<!DOCTYPE " + opts.Doctype + ">\n")
	}
	indent := opts.Indent
	if indent == "" {
		indent = " "
	}
	if d.isElement(id) {
		if err := d.writeElement(bw, id, indent); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String serializes the whole document, ignoring write errors.
func (d *Document) String() string {
	var sb strings.Builder
	_ = d.Serialize(&sb, Options{})
	return sb.String()
}

// NodeString serializes one subtree without header, for logging and tests.
func (d *Document) NodeString(id NodeID) string {
	var sb strings.Builder
	bw := bufio.NewWriter(&sb)
	if d.isElement(id) {
		_ = d.writeElement(bw, id, " ")
	} else if d.Valid(id) {
		_ = xml.EscapeText(bw, []byte(d.nodes[id].text))
	}
	_ = bw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

// writeElement is iterative so deep documents cannot exhaust the stack.
func (d *Document) writeElement(w *bufio.Writer, id NodeID, indent string) error {
	type frame struct {
		id    NodeID
		depth int
		close bool
	}
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &d.nodes[f.id]
		pad := strings.Repeat(indent, f.depth)

		if n.kind == TextNode {
			// mixed content: text goes on its own line
			w.WriteString(pad)
			if err := xml.EscapeText(w, []byte(n.text)); err != nil {
				return err
			}
			w.WriteByte('\n')
			continue
		}
		if f.close {
			w.WriteString(pad + "</" + n.name + ">\n")
			continue
		}

		w.WriteString(pad + "<" + n.name)
		for _, a := range n.attrs {
			w.WriteString(" " + a.Name + `="`)
			if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
				return err
			}
			w.WriteByte('"')
		}

		switch {
		case n.first == InvalidNode:
			w.WriteString("/>\n")
		case d.textOnly(f.id):
			w.WriteByte('>')
			for c := n.first; c != InvalidNode; c = d.nodes[c].next {
				if err := xml.EscapeText(w, []byte(d.nodes[c].text)); err != nil {
					return err
				}
			}
			w.WriteString("</" + n.name + ">\n")
		default:
			w.WriteString(">\n")
			stack = append(stack, frame{id: f.id, depth: f.depth, close: true})
			for c := n.last; c != InvalidNode; c = d.nodes[c].prev {
				if !d.layout(c) {
					stack = append(stack, frame{id: c, depth: f.depth + 1})
				}
			}
		}
	}
	return nil
}

func (d *Document) textOnly(id NodeID) bool {
	for c := d.nodes[id].first; c != InvalidNode; c = d.nodes[c].next {
		if d.nodes[c].kind != TextNode {
			return false
		}
	}
	return true
}
