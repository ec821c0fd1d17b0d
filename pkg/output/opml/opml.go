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

// Package opml provides output adapters for OPML and Netscape HTML formats.
package opml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

func init() {
	adapter.RegisterOutput(&OPMLAdapter{})
	adapter.RegisterOutput(&HTMLAdapter{})
}

// OPMLAdapter exports bookmarks to OPML format.
type OPMLAdapter struct{}

// Name returns the adapter identifier.
func (a *OPMLAdapter) Name() string { return "opml" }

// DisplayName returns a human-friendly name.
func (a *OPMLAdapter) DisplayName() string { return "OPML" }

// Extensions returns file extensions for this format.
func (a *OPMLAdapter) Extensions() []string { return []string{".opml", ".xml"} }

// Configure sets up the adapter.
func (a *OPMLAdapter) Configure(cfg output.Config) error { return nil }

// Render exports the tree to OPML. Separators have no OPML form and are
// left out.
func (a *OPMLAdapter) Render(root bookmark.Group, opts output.RenderOptions) ([]byte, error) {
	nodes, _ := output.Build(root, opts)
	doc := opmlDocument{
		Version: "2.0",
		Head: opmlHead{
			Title:       opts.DocumentTitle(),
			DateCreated: time.Now().Format(time.RFC1123),
		},
	}
	doc.Body.Outlines = toOutlines(nodes)

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling OPML: %w", err)
	}

	return append([]byte(xml.Header), data...), nil
}

// OPML structures for output
type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title       string `xml:"title"`
	DateCreated string `xml:"dateCreated"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Type     string        `xml:"type,attr,omitempty"`
	HTMLURL  string        `xml:"htmlUrl,attr,omitempty"`
	Created  string        `xml:"created,attr,omitempty"`
	Category string        `xml:"category,attr,omitempty"`
	Children []opmlOutline `xml:"outline,omitempty"`
}

func toOutlines(nodes []*output.Node) []opmlOutline {
	var outlines []opmlOutline
	for _, n := range nodes {
		switch {
		case n.Separator:
			continue
		case n.Folder:
			outlines = append(outlines, opmlOutline{
				Text:     n.Title,
				Children: toOutlines(n.Children),
			})
		default:
			o := opmlOutline{
				Text:     n.Title,
				Type:     "link",
				HTMLURL:  n.URL,
				Category: strings.Join(n.Tags, ","),
			}
			if !n.Added.IsZero() {
				o.Created = n.Added.Format(time.RFC1123)
			}
			outlines = append(outlines, o)
		}
	}
	return outlines
}

// HTMLAdapter exports bookmarks to Netscape HTML format.
type HTMLAdapter struct{}

// Name returns the adapter identifier.
func (a *HTMLAdapter) Name() string { return "html" }

// DisplayName returns a human-friendly name.
func (a *HTMLAdapter) DisplayName() string { return "Netscape HTML" }

// Extensions returns file extensions for this format.
func (a *HTMLAdapter) Extensions() []string { return []string{".html", ".htm"} }

// Configure sets up the adapter.
func (a *HTMLAdapter) Configure(cfg output.Config) error { return nil }

// Render exports the tree to the Netscape bookmark file format that
// browsers import.
func (a *HTMLAdapter) Render(root bookmark.Group, opts output.RenderOptions) ([]byte, error) {
	nodes, _ := output.Build(root, opts)
	title := html.EscapeString(opts.DocumentTitle())

	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
`)
	fmt.Fprintf(&sb, "<TITLE>%s</TITLE>\n<H1>%s</H1>\n<DL><p>\n", title, title)
	renderHTMLFolder(&sb, nodes, 1)
	sb.WriteString("</DL><p>\n")

	return []byte(sb.String()), nil
}

func renderHTMLFolder(sb *strings.Builder, nodes []*output.Node, depth int) {
	indent := strings.Repeat("    ", depth)

	for _, n := range nodes {
		switch {
		case n.Separator:
			sb.WriteString(indent + "<HR>\n")
		case n.Folder:
			fmt.Fprintf(sb, "%s<DT><H3>%s</H3>\n", indent, html.EscapeString(n.Title))
			fmt.Fprintf(sb, "%s<DL><p>\n", indent)
			renderHTMLFolder(sb, n.Children, depth+1)
			fmt.Fprintf(sb, "%s</DL><p>\n", indent)
		default:
			attrs := fmt.Sprintf(" HREF=\"%s\"", html.EscapeString(n.URL))
			if !n.Added.IsZero() {
				attrs += fmt.Sprintf(" ADD_DATE=\"%d\"", n.Added.Unix())
			}
			if len(n.Tags) > 0 {
				attrs += fmt.Sprintf(" TAGS=\"%s\"", html.EscapeString(strings.Join(n.Tags, ",")))
			}
			fmt.Fprintf(sb, "%s<DT><A%s>%s</A>\n", indent, attrs, html.EscapeString(n.Title))
			if n.Description != "" {
				fmt.Fprintf(sb, "%s<DD>%s\n", indent, html.EscapeString(n.Description))
			}
		}
	}
}
