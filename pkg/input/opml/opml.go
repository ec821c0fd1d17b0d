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

// Package opml provides an input adapter for OPML and Netscape HTML bookmark files.
package opml

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/input"
)

func init() {
	adapter.RegisterInput(&Adapter{})
}

// Adapter reads bookmarks from OPML or Netscape HTML files.
type Adapter struct {
	path string
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "opml" }

// DisplayName returns a human-friendly name.
func (a *Adapter) DisplayName() string { return "OPML/HTML Import" }

// Available returns true if a file path is configured.
func (a *Adapter) Available() bool { return a.path != "" }

// Path returns the configured file path.
func (a *Adapter) Path() string { return a.path }

// Configure sets up the adapter with the given configuration.
func (a *Adapter) Configure(cfg input.Config) error {
	a.path = cfg.CustomPath
	return nil
}

// ListProfiles returns an empty list (not applicable for file import).
func (a *Adapter) ListProfiles() ([]input.ProfileInfo, error) {
	return nil, nil
}

// Read imports bookmarks from the configured file.
func (a *Adapter) Read(ctx context.Context) ([]bookmark.Entry, error) {
	if a.path == "" {
		return nil, fmt.Errorf("no file path configured")
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Parse(data)
}

// Parse detects the format of data and reads its entries.
func Parse(data []byte) ([]bookmark.Entry, error) {
	upper := bytes.ToUpper(data)
	if bytes.Contains(upper, []byte("<!DOCTYPE NETSCAPE-BOOKMARK-FILE")) ||
		bytes.Contains(upper, []byte("<DL>")) {
		return parseNetscapeHTML(bytes.NewReader(data))
	}
	return parseOPML(data)
}

type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Body    opmlBody `xml:"body"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	Type     string        `xml:"type,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	URL      string        `xml:"url,attr"`
	Created  string        `xml:"created,attr"`
	Category string        `xml:"category,attr"`
	Children []opmlOutline `xml:"outline"`
}

func parseOPML(data []byte) ([]bookmark.Entry, error) {
	var doc opmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing OPML: %w", err)
	}

	var entries []bookmark.Entry
	walkOPML(doc.Body.Outlines, nil, &entries)
	return entries, nil
}

func walkOPML(outlines []opmlOutline, path []string, entries *[]bookmark.Entry) {
	for _, o := range outlines {
		title := o.Text
		if title == "" {
			title = o.Title
		}

		if len(o.Children) > 0 {
			walkOPML(o.Children, append(append([]string{}, path...), title), entries)
			continue
		}

		// htmlUrl first, then the feed or link url
		url := o.HTMLURL
		if url == "" {
			url = o.URL
		}
		if url == "" {
			url = o.XMLURL
		}
		if url == "" {
			continue
		}

		e := bookmark.Entry{
			Title:      title,
			URL:        url,
			FolderPath: append([]string{}, path...),
			Source:     "opml",
			Profile:    "import",
		}
		if o.Created != "" {
			if t, err := time.Parse(time.RFC1123, o.Created); err == nil {
				e.DateAdded = t
			} else if t, err := time.Parse(time.RFC1123Z, o.Created); err == nil {
				e.DateAdded = t
			}
		}
		if o.Category != "" {
			e.Tags = splitTags(o.Category)
		}

		*entries = append(*entries, e)
	}
}

// parseNetscapeHTML reads the bookmark file format exported by most
// browsers: nested <DL> lists of <DT><H3> folders and <DT><A> links, with
// an optional <DD> description after a link.
func parseNetscapeHTML(r io.Reader) ([]bookmark.Entry, error) {
	z := html.NewTokenizer(r)

	var (
		entries []bookmark.Entry
		stack   []string // folder titles, "" for unnamed lists
		pending string   // title of the last <H3>, owner of the next <DL>
		text    strings.Builder
		link    *bookmark.Entry
		inH3    bool
		inDD    bool
		ddOwner = -1
	)

	finishDD := func() {
		if inDD && ddOwner >= 0 {
			entries[ddOwner].Description = strings.TrimSpace(text.String())
		}
		inDD = false
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				finishDD()
				return entries, nil
			}
			return nil, fmt.Errorf("parsing bookmark HTML: %w", z.Err())

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "h3":
				finishDD()
				inH3 = true
				text.Reset()
			case "dl":
				finishDD()
				stack = append(stack, pending)
				pending = ""
			case "dt":
				finishDD()
			case "dd":
				finishDD()
				inDD = true
				text.Reset()
			case "a":
				finishDD()
				link = &bookmark.Entry{
					FolderPath: folderPath(stack),
					Source:     "html",
					Profile:    "import",
				}
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					switch string(key) {
					case "href":
						link.URL = string(val)
					case "add_date":
						link.DateAdded = parseUnixTimestamp(string(val))
					case "tags":
						link.Tags = splitTags(string(val))
					}
				}
				text.Reset()
			}

		case html.TextToken:
			if inH3 || inDD || link != nil {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "h3":
				pending = strings.TrimSpace(text.String())
				inH3 = false
				ddOwner = -1
			case "a":
				if link == nil {
					continue
				}
				link.Title = strings.TrimSpace(text.String())
				ddOwner = -1
				if link.URL != "" {
					entries = append(entries, *link)
					ddOwner = len(entries) - 1
				}
				link = nil
			case "dl":
				finishDD()
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				ddOwner = -1
			}
		}
	}
}

func folderPath(stack []string) []string {
	var out []string
	for _, s := range stack {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseUnixTimestamp(s string) time.Time {
	ts, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
