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
	"strconv"
	"strings"
	"time"
)

// KeyTags holds comma separated tags brought in by importers.
const KeyTags = "tags"

// Entry is a flat, source-agnostic record of one bookmark. Importers read
// their sources into entries; Populate turns them into XBEL folders and
// bookmarks, and Flatten produces them back from a tree.
type Entry struct {
	// Title is the display name. Renderers fall back to the URL.
	Title string

	// URL is the target address (required).
	URL string

	// FolderPath is the chain of folder titles above the entry.
	// Empty means the entry sits directly in the group it came from.
	FolderPath []string

	// DateAdded is zero when unknown.
	DateAdded time.Time

	// Source names the importer, Profile the browser profile.
	Source  string
	Profile string

	Tags        []string
	Description string

	// Address is set by Flatten only.
	Address string
}

// Collection aggregates entries from one or more sources.
type Collection struct {
	Entries []Entry
	Sources []SourceInfo
}

// SourceInfo describes a source that contributed to a collection.
type SourceInfo struct {
	Name    string
	Profile string
	Path    string
	Count   int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		Entries: []Entry{},
		Sources: []SourceInfo{},
	}
}

// Add appends entries with source attribution. source.Count is set to
// len(entries).
func (c *Collection) Add(entries []Entry, source SourceInfo) {
	c.Entries = append(c.Entries, entries...)
	source.Count = len(entries)
	c.Sources = append(c.Sources, source)
}

// Count returns the number of entries.
func (c *Collection) Count() int {
	return len(c.Entries)
}

// Populate appends entries under root, creating or reusing folders named by
// FolderPath. It returns the number of bookmarks created.
func Populate(root Group, entries []Entry) int {
	if root.IsNull() {
		return 0
	}
	folders := map[string]Group{"": root}
	added := 0
	for _, e := range entries {
		parent := root
		key := ""
		for _, name := range e.FolderPath {
			key += "/" + name
			g, ok := folders[key]
			if !ok {
				g = childFolder(parent, name)
				folders[key] = g
			}
			parent = g
		}

		title := e.Title
		if title == "" {
			title = e.URL
		}
		b := parent.AddNewBookmark(title, e.URL, "")
		if b.IsNull() {
			continue
		}
		if !e.DateAdded.IsZero() {
			b.SetMetaDataItem(KeyTimeAdded, strconv.FormatInt(e.DateAdded.Unix(), 10), Overwrite)
		}
		if len(e.Tags) > 0 {
			b.SetMetaDataItem(KeyTags, strings.Join(e.Tags, ","), Overwrite)
		}
		if e.Description != "" {
			b.SetDescription(e.Description)
		}
		added++
	}
	return added
}

// childFolder returns the child folder titled name, creating it if needed.
func childFolder(parent Group, name string) Group {
	for b := parent.First(); !b.IsNull(); b = parent.Next(b) {
		if g, ok := b.ToGroup(); ok && g.FullText() == name {
			return g
		}
	}
	return parent.CreateNewFolder(name)
}

// Flatten lists every bookmark below root with its folder path.
// Separators are skipped.
func Flatten(root Group) []Entry {
	var (
		out  []Entry
		path []string
	)
	Traverse(root, TraverserFuncs{
		OnEnter: func(g Group) { path = append(path, g.FullText()) },
		OnLeave: func(Group) { path = path[:len(path)-1] },
		OnVisit: func(b Bookmark) {
			if b.IsSeparator() {
				return
			}
			addr, _ := b.Address()
			e := Entry{
				Title:       b.FullText(),
				URL:         b.URL(),
				FolderPath:  append([]string(nil), path...),
				DateAdded:   b.TimeAdded(),
				Description: b.Description(),
				Address:     addr,
			}
			if tags := b.MetaDataItem(KeyTags); tags != "" {
				e.Tags = strings.Split(tags, ",")
			}
			out = append(out, e)
		},
	})
	return out
}
