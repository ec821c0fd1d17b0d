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

package places

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/manager"
)

func newPair(t *testing.T) (private, shared *manager.Manager) {
	t.Helper()
	reg := manager.NewRegistry(nil, manager.Options{Logger: zerolog.Nop()})
	t.Cleanup(func() { _ = reg.Close() })
	return reg.CreateTempManager(), reg.CreateTempManager()
}

func addSystem(g bookmark.Group, title, url string) bookmark.Bookmark {
	b := g.AddNewBookmark(title, url, "")
	b.SetMetaDataItem(bookmark.KeySystemItem, "true", bookmark.Overwrite)
	return b
}

func titles(g bookmark.Group) []string {
	var out []string
	for _, b := range g.Children() {
		out = append(out, b.FullText())
	}
	return out
}

func TestIntegrateAppendsSharedEntries(t *testing.T) {
	private, shared := newPair(t)
	addSystem(private.Root(), "Home", "file:///home/u")
	shared.Root().AddNewBookmark("A", "file:///a", "")
	shared.Root().AddNewBookmark("B", "file:///b", "")

	r := New(private, shared)
	defer r.Close()

	assert.Equal(t, []string{"Home", "A", "B"}, titles(private.Root()))
	assert.False(t, r.IntegrateSharedBookmarks())
}

func TestIntegrate(t *testing.T) {
	tests := []struct {
		name    string
		private func(g bookmark.Group)
		shared  func(g bookmark.Group)
		dirty   bool
		want    []string
	}{
		{
			name: "identical",
			private: func(g bookmark.Group) {
				g.AddNewBookmark("A", "file:///a", "")
			},
			shared: func(g bookmark.Group) {
				g.AddNewBookmark("A", "file:///a", "")
			},
			want: []string{"A"},
		},
		{
			name: "renamed on the shared side",
			private: func(g bookmark.Group) {
				g.AddNewBookmark("A", "file:///a", "")
				g.AddNewBookmark("B", "file:///b", "")
			},
			shared: func(g bookmark.Group) {
				g.AddNewBookmark("A renamed", "file:///a", "")
				g.AddNewBookmark("B", "file:///b", "")
			},
			dirty: true,
			want:  []string{"A renamed", "B"},
		},
		{
			name: "removed on the shared side",
			private: func(g bookmark.Group) {
				g.AddNewBookmark("X", "file:///x", "")
				g.AddNewBookmark("A", "file:///a", "")
			},
			shared: func(g bookmark.Group) {
				g.AddNewBookmark("A", "file:///a", "")
			},
			dirty: true,
			want:  []string{"A"},
		},
		{
			name: "shared emptied",
			private: func(g bookmark.Group) {
				addSystem(g, "Home", "file:///home/u")
				g.AddNewBookmark("A", "file:///a", "")
			},
			shared: func(bookmark.Group) {},
			dirty:  true,
			want:   []string{"Home"},
		},
		{
			name: "system entries stay in place",
			private: func(g bookmark.Group) {
				g.AddNewBookmark("A", "file:///a", "")
				addSystem(g, "Home", "file:///home/u")
				dev := g.AddNewBookmark("USB", "file:///media/usb", "")
				dev.SetMetaDataItem(bookmark.KeyUDI, "/dev/usb0", bookmark.Overwrite)
				g.AddNewBookmark("B", "file:///b", "")
			},
			shared: func(g bookmark.Group) {
				g.AddNewBookmark("A", "file:///a", "")
				g.AddNewBookmark("B", "file:///b", "")
			},
			want: []string{"A", "Home", "USB", "B"},
		},
		{
			name: "match by title",
			private: func(g bookmark.Group) {
				g.AddNewBookmark("Docs", "file:///old", "")
			},
			shared: func(g bookmark.Group) {
				g.AddNewBookmark("Docs", "file:///new", "")
			},
			dirty: true,
			want:  []string{"Docs"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			private, shared := newPair(t)
			r := New(private, shared)
			defer r.Close()

			tt.private(private.Root())
			tt.shared(shared.Root())

			assert.Equal(t, tt.dirty, r.IntegrateSharedBookmarks())
			assert.Equal(t, tt.want, titles(private.Root()))
			assert.False(t, r.IntegrateSharedBookmarks(), "second pass is a no-op")
		})
	}
}

func TestIntegrateClonesSubtrees(t *testing.T) {
	private, shared := newPair(t)
	r := New(private, shared)
	defer r.Close()

	private.Root().CreateNewFolder("Work")
	f := shared.Root().CreateNewFolder("Work")
	f.AddNewBookmark("Wiki", "https://wiki.example/", "")

	require.True(t, r.IntegrateSharedBookmarks())
	got, ok := private.Root().First().ToGroup()
	require.True(t, ok)
	assert.Equal(t, []string{"https://wiki.example/"}, got.GroupURLList())

	// the copy is independent of the shared document
	f.AddNewBookmark("Mail", "https://mail.example/", "")
	assert.Len(t, got.Children(), 1)
}

func TestExport(t *testing.T) {
	private, shared := newPair(t)
	r := New(private, shared)
	defer r.Close()

	root := private.Root()
	addSystem(root, "Home", "file:///home/u")
	a := root.AddNewBookmark("A", "file:///a", "")
	root.AddNewBookmark("B", "file:///b", "")
	shared.Root().AddNewBookmark("A", "file:///a", "")

	assert.True(t, r.ExportSharedBookmarks())
	assert.Equal(t, []string{"A", "B"}, titles(shared.Root()))
	assert.False(t, r.ExportSharedBookmarks())

	a.SetFullText("A2")
	assert.True(t, r.ExportSharedBookmarks())
	assert.Equal(t, []string{"A2", "B"}, titles(shared.Root()))

	shared.Root().AddNewBookmark("extra", "file:///extra", "")
	assert.True(t, r.ExportSharedBookmarks())
	assert.Equal(t, []string{"A2", "B"}, titles(shared.Root()))
}

func TestReconcileFixedPoint(t *testing.T) {
	tests := []struct {
		name            string
		private, shared []string
	}{
		{"both empty", nil, nil},
		{"private only", []string{"a", "b"}, nil},
		{"shared only", nil, []string{"a", "b"}},
		{"disjoint", []string{"a", "b"}, []string{"c"}},
		{"reordered", []string{"a", "b", "c"}, []string{"c", "a", "b"}},
		{"overlap", []string{"a", "x", "b"}, []string{"a", "b", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			private, shared := newPair(t)
			r := New(private, shared)
			defer r.Close()

			addSystem(private.Root(), "Home", "file:///home/u")
			for _, s := range tt.private {
				private.Root().AddNewBookmark(s, "file:///"+s, "")
			}
			for _, s := range tt.shared {
				shared.Root().AddNewBookmark(s, "file:///"+s, "")
			}

			r.IntegrateSharedBookmarks()
			r.ExportSharedBookmarks()
			assert.False(t, r.IntegrateSharedBookmarks())
			assert.False(t, r.ExportSharedBookmarks())
			assert.Equal(t, "Home", private.Root().First().FullText())
		})
	}
}

func TestReactiveSync(t *testing.T) {
	private, shared := newPair(t)
	r := New(private, shared)

	sharedEmits := 0
	shared.OnBookmarksChanged(func(string) { sharedEmits++ })
	privateEmits := 0
	private.OnBookmarksChanged(func(string) { privateEmits++ })

	private.Root().AddNewBookmark("A", "file:///a", "")
	require.NoError(t, private.EmitChanged(bookmark.Group{}))
	assert.Equal(t, []string{"A"}, titles(shared.Root()))
	assert.Equal(t, 1, sharedEmits)
	assert.Equal(t, 1, privateEmits)

	shared.Root().AddNewBookmark("B", "file:///b", "")
	require.NoError(t, shared.EmitChanged(bookmark.Group{}))
	assert.Equal(t, []string{"A", "B"}, titles(private.Root()))
	assert.Equal(t, 2, sharedEmits)
	assert.Equal(t, 2, privateEmits)

	r.Close()
	private.Root().AddNewBookmark("C", "file:///c", "")
	require.NoError(t, private.EmitChanged(bookmark.Group{}))
	assert.Equal(t, []string{"A", "B"}, titles(shared.Root()))
}

func TestNewCreatesMissingSharedFile(t *testing.T) {
	dir := t.TempDir()
	reg := manager.NewRegistry(nil, manager.Options{Logger: zerolog.Nop()})
	t.Cleanup(func() { _ = reg.Close() })

	private, err := reg.ManagerForFile(filepath.Join(dir, "places.xbel"), "")
	require.NoError(t, err)
	EnsureSystemPlaces(private.Root(), "/home/u")
	private.Root().AddNewBookmark("Projects", "file:///home/u/src", "")

	sharedPath := filepath.Join(dir, SharedFileName)
	shared, err := reg.ManagerForExternalFile(sharedPath)
	require.NoError(t, err)

	r := New(private, shared)
	defer r.Close()

	data, err := os.ReadFile(sharedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `href="file:///home/u/src"`)
	assert.NotContains(t, string(data), "trash:/")
	assert.Len(t, private.Root().Children(), 5)
}

func TestEnsureSystemPlaces(t *testing.T) {
	private, _ := newPair(t)
	root := private.Root()

	assert.Equal(t, 4, EnsureSystemPlaces(root, "/home/u"))
	assert.Zero(t, EnsureSystemPlaces(root, "/home/u"))

	ids := map[string]bool{}
	for _, b := range root.Children() {
		assert.True(t, IsSystemItem(b))
		id := b.MetaDataItem(bookmark.KeyID)
		assert.NotEmpty(t, id)
		ids[id] = true
	}
	assert.Len(t, ids, 4)
	assert.Equal(t, "file:///home/u", root.First().URL())
	assert.Equal(t, "user-home", root.First().Icon())
}

func TestVisible(t *testing.T) {
	private, _ := newPair(t)
	root := private.Root()
	root.AddNewBookmark("All", "file:///all", "")
	SetHidden(root.AddNewBookmark("Hidden", "file:///hidden", ""), true)
	root.AddNewBookmark("Dolphin", "file:///d", "").SetMetaDataItem(bookmark.KeyOnlyInApp, "dolphin", bookmark.Overwrite)
	root.CreateNewSeparator()
	shown := root.AddNewBookmark("Unhidden", "file:///u", "")
	SetHidden(shown, false)

	names := func(bs []bookmark.Bookmark) []string {
		var out []string
		for _, b := range bs {
			out = append(out, b.FullText())
		}
		return out
	}
	assert.Equal(t, []string{"All", "Dolphin", "Unhidden"}, names(Visible(root, "dolphin")))
	assert.Equal(t, []string{"All", "Unhidden"}, names(Visible(root, "gwenview")))
}

func TestSyncDevices(t *testing.T) {
	private, _ := newPair(t)
	root := private.Root()
	addSystem(root, "Home", "file:///home/u")
	other := root.AddNewBookmark("Phone", "mtp:/phone", "")
	other.SetMetaDataItem(bookmark.KeyUDI, "/mtp/phone", bookmark.Overwrite)

	devices := StaticDevices{
		{UDI: "/block/sdb1", Label: "USB Stick", URL: "file:///media/usb"},
		{UDI: "/block/sdc1", Label: "Backup", URL: "file:///media/backup"},
		{UDI: "/mtp/phone", Label: "Phone", URL: "mtp:/phone"},
	}

	added, removed := SyncDevices(root, devices, "/block/*")
	assert.Equal(t, 2, added)
	assert.Zero(t, removed)
	assert.Equal(t, []string{"/block/sdb1", "/block/sdc1", "/mtp/phone"}, DeviceUDIs(root))

	added, removed = SyncDevices(root, devices, "/block/*")
	assert.Zero(t, added)
	assert.Zero(t, removed)

	added, removed = SyncDevices(root, devices[1:], "/block/*")
	assert.Zero(t, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"/block/sdc1", "/mtp/phone"}, DeviceUDIs(root))
	assert.Equal(t, "Home", root.First().FullText())
}

func TestStaticDevicesMatches(t *testing.T) {
	var s StaticDevices
	assert.True(t, s.Matches("", "/anything"))
	assert.True(t, s.Matches("/block/*", "/block/sda1"))
	assert.False(t, s.Matches("/block/*", "/mtp/phone"))
	assert.False(t, s.Matches("[", "/block"))
}
