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

// Package output provides the Adapter interface for bookmark renderers.
//
// Output adapters render an XBEL group, folders included, to an external
// format. Each adapter registers itself with the adapter registry from an
// init function and is selected at runtime with the --format flag.
package output

import (
	"sort"
	"strings"
	"time"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
)

// Adapter is the interface for bookmark output renderers.
type Adapter interface {
	// Name returns the unique identifier used with --format, e.g.
	// "markdown" or "json".
	Name() string

	// DisplayName returns a human-friendly name.
	DisplayName() string

	// Extensions returns the file extensions of the format, default first.
	Extensions() []string

	// Configure is called before Render.
	Configure(cfg Config) error

	// Render converts the tree under root.
	Render(root bookmark.Group, opts RenderOptions) ([]byte, error)
}

// Config holds adapter-specific configuration passed at runtime.
type Config struct {
	Options map[string]any
}

// RenderOptions configures what information to include in the output.
type RenderOptions struct {
	// IncludeMetadata adds a header with generation time and counts.
	IncludeMetadata bool

	IncludeDates bool
	IncludeTags  bool
	IncludeIcons bool

	// SortAlpha sorts each folder, folders first, by title.
	SortAlpha bool

	// Style selects an adapter-specific variant.
	Style string

	// Title names the document; "" means "Bookmarks".
	Title string
}

// DefaultRenderOptions returns sensible defaults for rendering.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		IncludeMetadata: true,
		IncludeDates:    true,
		IncludeTags:     true,
	}
}

// DocumentTitle returns opts.Title or the default.
func (o RenderOptions) DocumentTitle() string {
	if o.Title != "" {
		return o.Title
	}
	return "Bookmarks"
}

// Node is one entry of a rendered tree.
type Node struct {
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Address     string    `json:"address,omitempty" yaml:"address,omitempty"`
	Icon        string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Added       time.Time `json:"-" yaml:"-"`
	Date        string    `json:"date_added,omitempty" yaml:"date_added,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Folder      bool      `json:"folder,omitempty" yaml:"folder,omitempty"`
	Separator   bool      `json:"separator,omitempty" yaml:"separator,omitempty"`
	Children    []*Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Build converts the tree under root, applying the include and sort
// options. It also returns the number of bookmarks.
func Build(root bookmark.Group, opts RenderOptions) ([]*Node, int) {
	top := &Node{Folder: true}
	stack := []*Node{top}
	count := 0

	add := func(n *Node) {
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
	}
	bookmark.Traverse(root, bookmark.TraverserFuncs{
		OnEnter: func(g bookmark.Group) {
			n := describe(g.Bookmark, opts)
			n.Folder = true
			add(n)
			stack = append(stack, n)
		},
		OnLeave: func(bookmark.Group) {
			stack = stack[:len(stack)-1]
		},
		OnVisit: func(b bookmark.Bookmark) {
			if b.IsSeparator() {
				add(&Node{Separator: true})
				return
			}
			add(describe(b, opts))
			count++
		},
	})

	if opts.SortAlpha {
		sortNodes(top)
	}
	return top.Children, count
}

func describe(b bookmark.Bookmark, opts RenderOptions) *Node {
	n := &Node{
		Title:       b.FullText(),
		URL:         b.URL(),
		Description: b.Description(),
	}
	if n.Title == "" && !b.IsGroup() {
		n.Title = n.URL
	}
	n.Address, _ = b.Address()
	if opts.IncludeIcons {
		n.Icon = b.Icon()
	}
	if opts.IncludeDates {
		n.Added = b.TimeAdded()
		if !n.Added.IsZero() {
			n.Date = n.Added.Format("2006-01-02")
		}
	}
	if opts.IncludeTags {
		if tags := b.MetaDataItem(bookmark.KeyTags); tags != "" {
			n.Tags = strings.Split(tags, ",")
		}
	}
	return n
}

// sortNodes orders every folder: folders first, then by title. Separators
// lose their meaning in a sorted list and are dropped.
func sortNodes(n *Node) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kept := cur.Children[:0]
		for _, c := range cur.Children {
			if !c.Separator {
				kept = append(kept, c)
			}
		}
		cur.Children = kept
		sort.SliceStable(cur.Children, func(i, j int) bool {
			a, b := cur.Children[i], cur.Children[j]
			if a.Folder != b.Folder {
				return a.Folder
			}
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		})
		for _, c := range cur.Children {
			if c.Folder {
				stack = append(stack, c)
			}
		}
	}
}

// Walk calls fn for every node in order with the titles of the folders
// above it.
func Walk(nodes []*Node, fn func(n *Node, path []string)) {
	type frame struct {
		nodes []*Node
		path  []string
	}
	stack := []frame{{nodes: nodes}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if len(f.nodes) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		n := f.nodes[0]
		f.nodes = f.nodes[1:]
		path := f.path
		fn(n, path)
		if n.Folder {
			stack = append(stack, frame{nodes: n.Children, path: append(append([]string{}, path...), n.Title)})
		}
	}
}
