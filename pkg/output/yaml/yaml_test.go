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

package yaml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/dom"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

func fixtureRoot(t *testing.T) bookmark.Group {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(`<xbel>
 <folder><title>Dev</title>
  <folder><title>Go</title>
   <bookmark href="https://go.dev/"><title>Go: home</title></bookmark>
  </folder>
 </folder>
 <bookmark href="https://example.com/"><title>Example</title></bookmark>
</xbel>`))
	require.NoError(t, err)
	return bookmark.NewGroup(doc, doc.Root())
}

func TestRenderFlat(t *testing.T) {
	data, err := New().Render(fixtureRoot(t), output.RenderOptions{Style: "flat", IncludeMetadata: true})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.NotNil(t, doc.Metadata)
	assert.Equal(t, 2, doc.Metadata.Total)
	assert.Equal(t, []BookmarkEntry{
		{Title: "Go: home", URL: "https://go.dev/", Folder: "Dev/Go"},
		{Title: "Example", URL: "https://example.com/"},
	}, doc.Bookmarks)
}

func TestRenderTree(t *testing.T) {
	data, err := New().Render(fixtureRoot(t), output.RenderOptions{})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Nil(t, doc.Metadata)
	require.Len(t, doc.Tree, 2)
	assert.Equal(t, "Go: home", doc.Tree[0].Children[0].Children[0].Title)
	assert.Equal(t, "https://example.com/", doc.Tree[1].URL)
}
