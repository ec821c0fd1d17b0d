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

// Package safari reads Safari's Bookmarks.plist, reading list included.
package safari

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"howett.net/plist"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/input"
)

const (
	typeLeaf = "WebBookmarkTypeLeaf"
	typeList = "WebBookmarkTypeList"

	// TagReadingList marks entries imported from the reading list.
	TagReadingList = "reading-list"
)

// folderTitles renames Safari's built-in folders to what its UI shows.
var folderTitles = map[string]string{
	"BookmarksBar":          "Favorites",
	"BookmarksMenu":         "Bookmarks Menu",
	"com.apple.ReadingList": "Reading List",
}

func init() {
	adapter.RegisterInput(New())
}

// Adapter implements input.Adapter for Safari. The default location only
// exists on macOS; a custom path works anywhere.
type Adapter struct {
	config input.Config
	path   string
}

func New() *Adapter {
	a := &Adapter{}
	a.path = a.plistPath()
	return a
}

func (a *Adapter) Name() string { return "safari" }

func (a *Adapter) DisplayName() string { return "Apple Safari" }

func (a *Adapter) Available() bool {
	if a.path == "" {
		return false
	}
	_, err := os.Stat(a.path)
	return err == nil
}

func (a *Adapter) Configure(cfg input.Config) error {
	a.config = cfg
	a.path = a.plistPath()
	return nil
}

func (a *Adapter) Path() string { return a.path }

// ListProfiles returns the single Safari profile.
func (a *Adapter) ListProfiles() ([]input.ProfileInfo, error) {
	if !a.Available() {
		return nil, nil
	}
	return []input.ProfileInfo{{Name: "default", Path: a.path, IsDefault: true}}, nil
}

func (a *Adapter) Read(ctx context.Context) ([]bookmark.Entry, error) {
	if a.path == "" {
		return nil, nil
	}
	f, err := os.Open(a.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func (a *Adapter) plistPath() string {
	if a.config.CustomPath != "" {
		return a.config.CustomPath
	}
	if runtime.GOOS != "darwin" {
		return ""
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Safari", "Bookmarks.plist")
}

type node struct {
	Type          string            `plist:"WebBookmarkType"`
	Title         string            `plist:"Title,omitempty"`
	URLString     string            `plist:"URLString,omitempty"`
	URIDictionary map[string]string `plist:"URIDictionary,omitempty"`
	ReadingList   *readingList      `plist:"ReadingList,omitempty"`
	Children      []node            `plist:"Children,omitempty"`
}

type readingList struct {
	DateAdded   time.Time `plist:"DateAdded"`
	PreviewText string    `plist:"PreviewText"`
}

// decode reads a binary or XML plist. Proxy nodes (history) and leaves
// without a URL are skipped.
func decode(r io.ReadSeeker) ([]bookmark.Entry, error) {
	var root node
	if err := plist.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}

	type frame struct {
		n    node
		path []string
	}
	var entries []bookmark.Entry
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.n.Type {
		case typeLeaf:
			if e, ok := leafEntry(f.n, f.path); ok {
				entries = append(entries, e)
			}
		case typeList:
			path := f.path
			if title := folderTitle(f.n.Title); title != "" {
				path = append(append([]string(nil), f.path...), title)
			}
			for i := len(f.n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n: f.n.Children[i], path: path})
			}
		}
	}
	return entries, nil
}

func folderTitle(t string) string {
	if name, ok := folderTitles[t]; ok {
		return name
	}
	return t
}

func leafEntry(n node, path []string) (bookmark.Entry, bool) {
	url := n.URLString
	if url == "" {
		url = n.URIDictionary[""]
	}
	if url == "" {
		return bookmark.Entry{}, false
	}
	title := n.Title
	if title == "" {
		title = n.URIDictionary["title"]
	}
	if title == "" {
		title = url
	}

	e := bookmark.Entry{
		Title:      title,
		URL:        url,
		FolderPath: path,
		Source:     "safari",
		Profile:    "default",
	}
	if rl := n.ReadingList; rl != nil {
		e.DateAdded = rl.DateAdded
		e.Description = rl.PreviewText
		e.Tags = []string{TagReadingList}
	}
	return e, true
}
