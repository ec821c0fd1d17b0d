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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulateAndFlatten(t *testing.T) {
	added := time.Unix(1600000000, 0)
	entries := []Entry{
		{Title: "Go", URL: "https://go.dev/", FolderPath: []string{"Dev", "Lang"}, DateAdded: added, Tags: []string{"go", "lang"}},
		{Title: "GitHub", URL: "https://github.com/", FolderPath: []string{"Dev"}},
		{URL: "https://example.com/"},
		{Title: "Rust", URL: "https://rust-lang.org/", FolderPath: []string{"Dev", "Lang"}, Description: "systems"},
	}

	root := newRoot(t)
	assert.Equal(t, 4, Populate(root, entries))

	// folders are reused, not duplicated
	dev, ok := root.First().ToGroup()
	require.True(t, ok)
	assert.Equal(t, "Dev", dev.FullText())
	assert.Len(t, root.Children(), 2)

	flat := Flatten(root)
	require.Len(t, flat, 4)
	assert.Equal(t, "Go", flat[0].Title)
	assert.Equal(t, []string{"Dev", "Lang"}, flat[0].FolderPath)
	assert.Equal(t, added, flat[0].DateAdded)
	assert.Equal(t, []string{"go", "lang"}, flat[0].Tags)
	assert.Equal(t, "/0/0/0", flat[0].Address)
	assert.Equal(t, "systems", flat[1].Description)
	assert.Equal(t, "GitHub", flat[2].Title)
	assert.Equal(t, "https://example.com/", flat[3].Title)
	assert.Empty(t, flat[3].FolderPath)
}

func TestPopulateReusesExistingFolder(t *testing.T) {
	root := newRoot(t)
	existing := root.CreateNewFolder("Dev")
	Populate(root, []Entry{{Title: "x", URL: "http://x/", FolderPath: []string{"Dev"}}})
	assert.Len(t, root.Children(), 1)
	assert.Equal(t, []string{"http://x/"}, existing.GroupURLList())
}

func TestCollection(t *testing.T) {
	c := NewCollection()
	c.Add([]Entry{{URL: "http://a/"}, {URL: "http://b/"}}, SourceInfo{Name: "chromium", Profile: "Default"})
	c.Add([]Entry{{URL: "http://c/"}}, SourceInfo{Name: "firefox"})
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, 2, c.Sources[0].Count)
	assert.Equal(t, 1, c.Sources[1].Count)
}

func TestFilter(t *testing.T) {
	entries := []Entry{
		{Title: "ok", URL: "https://ok.example/", FolderPath: []string{"Work"}},
		{Title: "js", URL: "javascript:alert(1)", FolderPath: []string{"Work"}},
		{Title: "ftp", URL: "ftp://files.example/", FolderPath: []string{"Work"}},
		{Title: "private", URL: "https://p.example/", FolderPath: []string{"Work", "Private"}},
		{Title: "home", URL: "https://home.example/", FolderPath: []string{"Home"}},
		{Title: "tracker", URL: "https://t.example/?utm=1", FolderPath: []string{"Work"}},
	}
	res, err := Filter(entries, FilterOptions{
		IncludeFolders:     []string{"Work"},
		ExcludeFolders:     []string{"Private"},
		ExcludeURLPatterns: []string{`utm=`},
		ExcludeProtocols:   []string{"JavaScript"},
		WarnProtocols:      []string{"ftp"},
	})
	require.NoError(t, err)

	var titles []string
	for _, e := range res.Entries {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"ok", "ftp"}, titles)
	assert.Equal(t, 4, res.Excluded)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, res.Reasons["not in included folders"])
}

func TestFilterBadPattern(t *testing.T) {
	_, err := Filter(nil, FilterOptions{ExcludeURLPatterns: []string{"("}})
	assert.Error(t, err)
}

func TestFilterURLLength(t *testing.T) {
	res, err := Filter([]Entry{
		{Title: "short", URL: "http://a/"},
		{Title: "long", URL: "http://example.com/" + strings.Repeat("a", 30)},
	}, FilterOptions{MaxURLLength: 40, WarnURLLength: 5})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "short", res.Entries[0].Title)
	assert.Len(t, res.Warnings, 1)
}

func TestDeduplicate(t *testing.T) {
	out := Deduplicate([]Entry{{Title: "1", URL: "u"}, {Title: "2", URL: "v"}, {Title: "3", URL: "u"}})
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Title)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "User Places", DisplayName("user-places"))
	assert.Equal(t, "Netscape Html", DisplayName("netscape_html"))
}
