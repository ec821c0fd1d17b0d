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

// Package yaml provides an output adapter for YAML format.
package yaml

import (
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

func init() {
	adapter.RegisterOutput(New())
}

// Adapter implements output.Adapter for YAML format.
type Adapter struct {
	config output.Config
}

// New creates a new YAML adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string {
	return "yaml"
}

// DisplayName returns a human-friendly name.
func (a *Adapter) DisplayName() string {
	return "YAML"
}

// Extensions returns supported file extensions.
func (a *Adapter) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Configure applies configuration to the adapter.
func (a *Adapter) Configure(cfg output.Config) error {
	a.config = cfg
	return nil
}

// Render converts the tree to YAML. Style "flat" lists bookmarks with a
// slash separated folder path.
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
				Folder:    strings.Join(path, "/"),
				DateAdded: n.Date,
				Tags:      n.Tags,
			})
		})
	} else {
		doc.Tree = nodes
	}

	return yaml.Marshal(doc)
}

// Document is the top-level YAML structure.
type Document struct {
	Metadata  *Metadata       `yaml:"metadata,omitempty"`
	Tree      []*output.Node  `yaml:"tree,omitempty"`
	Bookmarks []BookmarkEntry `yaml:"bookmarks,omitempty"`
}

// Metadata contains generation information.
type Metadata struct {
	Title     string `yaml:"title"`
	Generated string `yaml:"generated"`
	Platform  string `yaml:"platform"`
	Total     int    `yaml:"total"`
}

// BookmarkEntry is a single bookmark in the flat YAML output.
type BookmarkEntry struct {
	Title     string   `yaml:"title"`
	URL       string   `yaml:"url"`
	Folder    string   `yaml:"folder,omitempty"`
	DateAdded string   `yaml:"date_added,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}
