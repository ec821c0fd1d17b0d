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

// Package markdown provides an output adapter for markdown format.
package markdown

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

// Style defines the markdown sub-format.
type Style string

const (
	StyleTextual Style = "textual" // Nested markdown lists
	StyleTable   Style = "table"   // Markdown tables
	StyleYAML    Style = "yaml"    // Embedded YAML in code fence
)

func init() {
	adapter.RegisterOutput(New())
}

// Adapter implements output.Adapter for markdown format.
type Adapter struct {
	config output.Config
	style  Style
}

// New creates a new markdown adapter.
func New() *Adapter {
	return &Adapter{style: StyleTextual}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string {
	return "markdown"
}

// DisplayName returns a human-friendly name.
func (a *Adapter) DisplayName() string {
	return "Markdown"
}

// Extensions returns supported file extensions.
func (a *Adapter) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Configure applies configuration to the adapter.
func (a *Adapter) Configure(cfg output.Config) error {
	a.config = cfg
	if style, ok := cfg.Options["style"].(string); ok {
		switch Style(style) {
		case StyleTextual, StyleTable, StyleYAML:
			a.style = Style(style)
		default:
			return fmt.Errorf("unknown markdown style %q", style)
		}
	}
	return nil
}

// Render converts the tree to markdown.
func (a *Adapter) Render(root bookmark.Group, opts output.RenderOptions) ([]byte, error) {
	style := a.style
	if opts.Style != "" {
		style = Style(opts.Style)
	}

	nodes, total := output.Build(root, opts)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", opts.DocumentTitle())
	if opts.IncludeMetadata {
		fmt.Fprintf(&sb, "*Generated: %s*\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&sb, "*Platform: %s (%s)*\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(&sb, "*Total bookmarks: %d*\n\n", total)
	}

	switch style {
	case StyleTable:
		renderTable(&sb, nodes, opts)
	case StyleYAML:
		if err := renderYAML(&sb, nodes); err != nil {
			return nil, err
		}
	case StyleTextual:
		renderTextual(&sb, nodes, opts)
	default:
		return nil, fmt.Errorf("unknown markdown style %q", style)
	}

	return []byte(sb.String()), nil
}

func renderTextual(sb *strings.Builder, nodes []*output.Node, opts output.RenderOptions) {
	output.Walk(nodes, func(n *output.Node, path []string) {
		indent := strings.Repeat("  ", len(path))
		switch {
		case n.Separator:
			sb.WriteString(indent + "- ---\n")
		case n.Folder:
			fmt.Fprintf(sb, "%s- **%s**\n", indent, n.Title)
		default:
			sb.WriteString(indent + "- " + link(n) + meta(n, opts) + "\n")
		}
	})
}

func link(n *output.Node) string {
	title := strings.ReplaceAll(n.Title, "[", "\\[")
	title = strings.ReplaceAll(title, "]", "\\]")
	return fmt.Sprintf("[%s](%s)", title, n.URL)
}

func meta(n *output.Node, opts output.RenderOptions) string {
	var parts []string
	if opts.IncludeDates && n.Date != "" {
		parts = append(parts, n.Date)
	}
	if opts.IncludeTags {
		for _, tag := range n.Tags {
			parts = append(parts, "#"+tag)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " *(" + strings.Join(parts, ", ") + ")*"
}

func renderTable(sb *strings.Builder, nodes []*output.Node, opts output.RenderOptions) {
	headers := []string{"Title", "Folder"}
	if opts.IncludeDates {
		headers = append(headers, "Date")
	}
	if opts.IncludeTags {
		headers = append(headers, "Tags")
	}

	sb.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat("---|", len(headers)) + "\n")

	output.Walk(nodes, func(n *output.Node, path []string) {
		if n.Folder || n.Separator {
			return
		}
		row := []string{
			escapeTableCell(link(n)),
			escapeTableCell(strings.Join(path, "/")),
		}
		if opts.IncludeDates {
			row = append(row, n.Date)
		}
		if opts.IncludeTags {
			tags := make([]string, len(n.Tags))
			for i, t := range n.Tags {
				tags[i] = "#" + t
			}
			row = append(row, strings.Join(tags, " "))
		}
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	})
}

type yamlEntry struct {
	Title  string   `yaml:"title"`
	URL    string   `yaml:"url"`
	Folder string   `yaml:"folder,omitempty"`
	Date   string   `yaml:"date,omitempty"`
	Tags   []string `yaml:"tags,omitempty,flow"`
}

func renderYAML(sb *strings.Builder, nodes []*output.Node) error {
	var entries []yamlEntry
	output.Walk(nodes, func(n *output.Node, path []string) {
		if n.Folder || n.Separator {
			return
		}
		entries = append(entries, yamlEntry{
			Title:  n.Title,
			URL:    n.URL,
			Folder: strings.Join(path, "/"),
			Date:   n.Date,
			Tags:   n.Tags,
		})
	})

	data, err := yaml.Marshal(map[string][]yamlEntry{"bookmarks": entries})
	if err != nil {
		return fmt.Errorf("marshaling yaml: %w", err)
	}
	sb.WriteString("```yaml\n")
	sb.Write(data)
	sb.WriteString("```\n")
	return nil
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
