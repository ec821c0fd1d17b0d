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
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
)

// Place describes a system entry seeded into an empty places list.
type Place struct {
	Title string
	URL   string
	Icon  string
}

// SystemPlaces returns the default places for a user whose home directory
// is home.
func SystemPlaces(home string) []Place {
	return []Place{
		{Title: "Home", URL: fileURL(home), Icon: "user-home"},
		{Title: "Network", URL: "remote:/", Icon: "network-workgroup"},
		{Title: "Root", URL: "file:///", Icon: "folder-red"},
		{Title: "Trash", URL: "trash:/", Icon: "user-trash"},
	}
}

func fileURL(p string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String()
}

// EnsureSystemPlaces appends every default place whose URL is not yet a
// system entry of root and returns how many were added.
func EnsureSystemPlaces(root bookmark.Group, home string) int {
	have := make(map[string]bool)
	for b := root.First(); !b.IsNull(); b = root.Next(b) {
		if b.MetaDataItem(bookmark.KeySystemItem) == "true" {
			have[b.URL()] = true
		}
	}

	added := 0
	for _, p := range SystemPlaces(home) {
		if have[bookmark.EncodeURL(p.URL)] {
			continue
		}
		b := root.AddNewBookmark(p.Title, p.URL, p.Icon)
		if b.IsNull() {
			break
		}
		b.SetMetaDataItem(bookmark.KeySystemItem, "true", bookmark.Overwrite)
		b.SetMetaDataItem(bookmark.KeyID, uuid.NewString(), bookmark.DontOverwriteIfAlreadySet)
		added++
	}
	return added
}

// IsHidden reports IsHidden=="true".
func IsHidden(b bookmark.Bookmark) bool {
	return b.MetaDataItem(bookmark.KeyHidden) == "true"
}

// SetHidden stores the hidden flag.
func SetHidden(b bookmark.Bookmark, hidden bool) {
	v := "false"
	if hidden {
		v = "true"
	}
	b.SetMetaDataItem(bookmark.KeyHidden, v, bookmark.Overwrite)
}

// Visible returns the entries of root shown to app: not hidden, and either
// not bound to an application or bound to app.
func Visible(root bookmark.Group, app string) []bookmark.Bookmark {
	var out []bookmark.Bookmark
	for b := root.First(); !b.IsNull(); b = root.Next(b) {
		if b.IsSeparator() || IsHidden(b) {
			continue
		}
		if only := b.MetaDataItem(bookmark.KeyOnlyInApp); only != "" && only != app {
			continue
		}
		out = append(out, b)
	}
	return out
}
