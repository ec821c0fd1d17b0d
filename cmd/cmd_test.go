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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t    *testing.T
	dir  string
	file string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XBEL_LOG_LEVEL", "")
	return &harness{t: t, dir: dir, file: filepath.Join(dir, "bookmarks.xbel")}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"-c", filepath.Join(h.dir, "none.yaml"), "-f", h.file}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "xbel %s", strings.Join(args, " "))
	return out
}

func TestEditCommands(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "/0\n", h.mustRun("add", "Go", "https://go.dev/"))
	assert.Equal(t, "/1\n", h.mustRun("mkdir", "Work"))
	assert.Equal(t, "/1/0\n", h.mustRun("add", "Docs", "https://docs.example.com/", "--in", "/1"))
	assert.Equal(t, "/2\n", h.mustRun("separator"))

	list := h.mustRun("list")
	assert.Contains(t, list, "Go <https://go.dev/>")
	assert.Contains(t, list, "Work/")
	assert.Contains(t, list, "  Docs <https://docs.example.com/>")
	assert.Contains(t, list, "---")

	// Go moves into Work after Docs; Work becomes /0
	assert.Equal(t, "/0/1\n", h.mustRun("mv", "/0", "/1/0"))
	h.mustRun("rm", "/0/0")

	list = h.mustRun("list", "/0")
	assert.NotContains(t, list, "Docs")
	assert.Contains(t, list, "/0/0")
	assert.Contains(t, list, "Go <https://go.dev/>")

	show := h.mustRun("show", "/0")
	assert.Contains(t, show, "Type:")
	assert.Contains(t, show, "folder")
	assert.Contains(t, show, "Children:    1")

	data, err := os.ReadFile(h.file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE xbel>")
	assert.Contains(t, string(data), `href="https://go.dev/"`)
}

func TestEditErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("rm", "/5")
	assert.Error(t, err)

	h.mustRun("add", "Go", "https://go.dev/")
	_, err = h.run("add", "x", "https://x.example/", "--in", "/0")
	assert.ErrorContains(t, err, "not a folder")

	_, err = h.run("visit", "https://nowhere.example/")
	assert.Error(t, err)
}

func TestVisitCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Go", "https://go.dev/")
	h.mustRun("visit", "https://go.dev/")

	show := h.mustRun("show", "/0")
	assert.Contains(t, show, "Visits:      1")
	assert.Contains(t, show, "Visited:")
}

func TestToolbarCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("mkdir", "Bar")
	h.mustRun("add", "Go", "https://go.dev/", "--in", "/0")
	h.mustRun("toolbar", "--set", "/0")

	out := h.mustRun("toolbar")
	assert.Contains(t, out, "Go <https://go.dev/>")
	assert.FileExists(t, h.file+".toolbarcache")
}

func TestExportCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("mkdir", "Work")
	h.mustRun("add", "Go", "https://go.dev/", "--in", "/0")

	md := h.mustRun("export", "--title", "Mine")
	assert.Contains(t, md, "# Mine")
	assert.Contains(t, md, "[Go](https://go.dev/)")

	js := h.mustRun("export", "--format", "json", "--style", "flat")
	assert.Contains(t, js, `"url": "https://go.dev/"`)

	target := filepath.Join(h.dir, "out", "bookmarks.html")
	assert.Empty(t, h.mustRun("export", "-o", target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE NETSCAPE-Bookmark-file-1>")
	assert.Contains(t, string(data), `HREF="https://go.dev/"`)

	_, err = h.run("export", "--format", "nope")
	assert.ErrorContains(t, err, "unknown format")
}

const netscapeFile = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>Lang</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/" ADD_DATE="1700000000">Go</A>
    </DL><p>
    <DT><A HREF="https://example.com/">Example</A>
    <DT><A HREF="javascript:alert(1)">Bookmarklet</A>
</DL><p>
`

func TestImportCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("mkdir", "Imported")

	src := filepath.Join(h.dir, "export.html")
	require.NoError(t, os.WriteFile(src, []byte(netscapeFile), 0o644))

	out := h.mustRun("import", "--from-file", src, "--into", "/0")
	assert.Equal(t, "Imported 2 bookmarks\n", out)

	list := h.mustRun("list", "/0")
	assert.Contains(t, list, "Lang/")
	assert.Contains(t, list, "Go <https://go.dev/>")
	assert.Contains(t, list, "Example <https://example.com/>")
	assert.NotContains(t, list, "Bookmarklet")

	_, err := h.run("import", "--from-file", filepath.Join(h.dir, "missing.html"))
	assert.ErrorContains(t, err, "no bookmarks found")
}

func TestAdaptersCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("adapters")
	for _, name := range []string{"chrome", "firefox", "opml", "markdown", "json", "yaml", "html"} {
		assert.Contains(t, out, name)
	}
}

func TestPlacesSync(t *testing.T) {
	h := newHarness(t)
	t.Setenv("HOME", h.dir)

	out := h.mustRun("places", "sync")
	assert.Contains(t, out, "Places synced (4 added, 0 removed)")

	list := h.mustRun("places", "list")
	assert.Contains(t, list, "system")
	assert.Contains(t, list, "Home")
	assert.Contains(t, list, "trash:/")

	// a second run finds everything in place
	out = h.mustRun("places", "sync")
	assert.Contains(t, out, "Places synced (0 added, 0 removed)")
}

func TestServeCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Go", "https://go.dev/")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_bookmarks","arguments":{"query":"go"}}}` + "\n"))
	root.SetArgs([]string{"-c", filepath.Join(h.dir, "none.yaml"), "-f", h.file, "serve"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "https://go.dev/")
}
