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

package opml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudygreybeard/xbel/pkg/input"
)

const netscape = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000">Dev &amp; Ops</H3>
    <DD>folder notes
    <DL><p>
        <DT><A HREF="https://go.dev/?a=1&amp;b=2" ADD_DATE="1700000000" TAGS="go,lang">Go</A>
        <DD>The Go site
        <DT><H3>Nested</H3>
        <DL><p>
            <DT><A HREF="https://pkg.go.dev/">Packages</A>
        </DL><p>
    </DL><p>
    <DT><A HREF="https://example.com/">Example</A>
    <DT><A>no href</A>
</DL><p>
`

func TestParseNetscape(t *testing.T) {
	entries, err := Parse([]byte(netscape))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Go", entries[0].Title)
	assert.Equal(t, "https://go.dev/?a=1&b=2", entries[0].URL)
	assert.Equal(t, []string{"Dev & Ops"}, entries[0].FolderPath)
	assert.Equal(t, []string{"go", "lang"}, entries[0].Tags)
	assert.Equal(t, "The Go site", entries[0].Description)
	assert.Equal(t, time.Unix(1700000000, 0), entries[0].DateAdded)
	assert.Equal(t, "html", entries[0].Source)

	assert.Equal(t, []string{"Dev & Ops", "Nested"}, entries[1].FolderPath)
	assert.Empty(t, entries[1].Description)

	assert.Equal(t, "Example", entries[2].Title)
	assert.Empty(t, entries[2].FolderPath)
}

const opmlDoc = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Links</title></head>
  <body>
    <outline text="News">
      <outline text="LWN" htmlUrl="https://lwn.net/" xmlUrl="https://lwn.net/headlines/rss" category="linux,news"/>
      <outline text="Feed only" type="rss" xmlUrl="https://example.com/feed"/>
    </outline>
    <outline text="Go" type="link" url="https://go.dev/" created="Mon, 02 Jan 2006 15:04:05 MST"/>
    <outline text="Nothing"/>
  </body>
</opml>`

func TestParseOPML(t *testing.T) {
	entries, err := Parse([]byte(opmlDoc))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "https://lwn.net/", entries[0].URL)
	assert.Equal(t, []string{"News"}, entries[0].FolderPath)
	assert.Equal(t, []string{"linux", "news"}, entries[0].Tags)
	assert.Equal(t, "https://example.com/feed", entries[1].URL)
	assert.Equal(t, "https://go.dev/", entries[2].URL)
	assert.Empty(t, entries[2].FolderPath)
	assert.False(t, entries[2].DateAdded.IsZero())
}

func TestParseOPMLMalformed(t *testing.T) {
	_, err := Parse([]byte("<opml><body><outline"))
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	a := &Adapter{}
	_, err := a.Read(context.Background())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "links.opml")
	require.NoError(t, os.WriteFile(path, []byte(opmlDoc), 0o644))
	require.NoError(t, a.Configure(input.Config{CustomPath: path}))
	assert.True(t, a.Available())
	entries, err := a.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
