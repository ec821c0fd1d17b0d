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

// Package json provides an output adapter for JSON format.
package json

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

func init() {
	adapter.RegisterOutput(New())
}

// Adapter implements output.Adapter for JSON format.
type Adapter struct {
	config output.Config
}

// New creates a new JSON adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string {
	return "json"
}

// DisplayName returns a human-friendly name.
func (a *Adapter) DisplayName() string {
	return "JSON"
}

// Extensions returns supported file extensions.
func (a *Adapter) Extensions() []string {
	return []string{".json"}
}

// Configure applies configuration to the adapter.
func (a *Adapter) Configure(cfg output.Config) error {
	a.config = cfg
	return nil
}

// Render converts the tree to JSON. Style "flat" lists bookmarks with
// their folder path instead of nesting them.
func (a *Adapter) Render(root bookmark.Group, opts output.RenderOptions) ([]byte, error) {
	nodes, total := output.Build(root, opts)
	doc := Document{}

	if opts.IncludeMetadata {
		doc.Metadata = &Metadata{
			Title:     opts.DocumentTitle(),
			Generated: time.Now().Format(time.RFC3339),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			Total:     total,
		}
	}

	if opts.Style == "flat" {
		output.Walk(nodes, func(n *output.Node, path []string) {
			if n.Folder || n.Separator {
				return
			}
			doc.Bookmarks = append(doc.Bookmarks, BookmarkEntry{
				Title:     n.Title,
				URL:       n.URL,
				Folder:    path,
				DateAdded: n.Date,
				Tags:      n.Tags,
			})
		})
	} else {
		doc.Tree = nodes
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Document is the top-level JSON structure.
type Document struct {
	Metadata  *Metadata       `json:"metadata,omitempty"`
	Tree      []*output.Node  `json:"tree,omitempty"`
	Bookmarks []BookmarkEntry `json:"bookmarks,omitempty"`
}

// Metadata contains generation information.
type Metadata struct {
	Title     string `json:"title"`
	Generated string `json:"generated"`
	Platform  string `json:"platform"`
	Total     int    `json:"total"`
}

// BookmarkEntry is a single bookmark in the flat JSON output.
type BookmarkEntry struct {
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Folder    []string `json:"folder,omitempty"`
	DateAdded string   `json:"date_added,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}
