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

package markdown

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
  <bookmark href="https://go.dev/"><title>Go [site]</title>
   <info><metadata owner="http://www.kde.org"><tags>golang,lang</tags></metadata></info>
  </bookmark>
 </folder>
 <separator/>
 <bookmark href="https://example.com/"><title>a|b</title></bookmark>
</xbel>`))
	require.NoError(t, err)
	return bookmark.NewGroup(doc, doc.Root())
}

func TestRenderTextual(t *testing.T) {
	opts := output.RenderOptions{IncludeTags: true, Title: "My Links"}
	data, err := New().Render(fixtureRoot(t), opts)
	require.NoError(t, err)

	want := "# My Links\n\n" +
		"- **Dev**\n" +
		"  - [Go \\[site\\]](https://go.dev/) *(#golang, #lang)*\n" +
		"- ---\n" +
		"- [a|b](https://example.com/)\n"
	assert.Equal(t, want, string(data))
}

func TestRenderMetadataHeader(t *testing.T) {
	data, err := New().Render(fixtureRoot(t), output.DefaultRenderOptions())
	require.NoError(t, err)
	assert.Contains(t, string(data), "*Total bookmarks: 2*")
}

func TestRenderTable(t *testing.T) {
	a := New()
	require.NoError(t, a.Configure(output.Config{Options: map[string]any{"style": "table"}}))

	data, err := a.Render(fixtureRoot(t), output.RenderOptions{IncludeTags: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "| Title | Folder | Tags |", lines[2])
	assert.Equal(t, "|---|---|---|", lines[3])
	assert.Equal(t, "| [Go \\[site\\]](https://go.dev/) | Dev | #golang #lang |", lines[4])
	assert.Equal(t, "| [a\\|b](https://example.com/) |  |  |", lines[5])
}

func TestRenderYAML(t *testing.T) {
	data, err := New().Render(fixtureRoot(t), output.RenderOptions{Style: string(StyleYAML)})
	require.NoError(t, err)

	text := string(data)
	start := strings.Index(text, "```yaml\n")
	require.GreaterOrEqual(t, start, 0)
	body := strings.TrimSuffix(text[start+len("```yaml\n"):], "```\n")

	var doc struct {
		Bookmarks []yamlEntry `yaml:"bookmarks"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(body), &doc))
	assert.Equal(t, []yamlEntry{
		{Title: "Go [site]", URL: "https://go.dev/", Folder: "Dev"},
		{Title: "a|b", URL: "https://example.com/"},
	}, doc.Bookmarks)
}

func TestConfigureRejectsUnknownStyle(t *testing.T) {
	err := New().Configure(output.Config{Options: map[string]any{"style": "fancy"}})
	assert.Error(t, err)

	_, err = New().Render(fixtureRoot(t), output.RenderOptions{Style: "fancy"})
	assert.Error(t, err)
}
