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

// Package chromium reads the JSON bookmark store of Chromium-based
// browsers (Chrome, Edge, Chromium, Brave).
package chromium

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/input"
)

// browser locates the user data directory of one Chromium flavour,
// relative to the home directory (LOCALAPPDATA on windows).
type browser struct {
	display string
	dirs    map[string]string
}

var browsers = map[string]browser{
	"chrome": {"Google Chrome", map[string]string{
		"linux":   ".config/google-chrome",
		"darwin":  "Library/Application Support/Google/Chrome",
		"windows": "Google/Chrome/User Data",
	}},
	"edge": {"Microsoft Edge", map[string]string{
		"linux":   ".config/microsoft-edge",
		"darwin":  "Library/Application Support/Microsoft Edge",
		"windows": "Microsoft/Edge/User Data",
	}},
	"chromium": {"Chromium", map[string]string{
		"linux":   ".config/chromium",
		"darwin":  "Library/Application Support/Chromium",
		"windows": "Chromium/User Data",
	}},
	"brave": {"Brave", map[string]string{
		"linux":   ".config/BraveSoftware/Brave-Browser",
		"darwin":  "Library/Application Support/BraveSoftware/Brave-Browser",
		"windows": "BraveSoftware/Brave-Browser/User Data",
	}},
}

// webkitEpoch is 1601-01-01 expressed in Unix seconds.
const webkitEpoch = -11644473600

func init() {
	for _, name := range []string{"chrome", "edge", "chromium", "brave"} {
		adapter.RegisterInput(New(name))
	}
}

// Adapter implements input.Adapter for one Chromium-based browser.
type Adapter struct {
	name     string
	config   input.Config
	profiles []input.ProfileInfo
}

// New creates the adapter for the browser called name.
func New(name string) *Adapter {
	a := &Adapter{name: name}
	a.profiles = discoverProfiles(a.userDataDir())
	return a
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) DisplayName() string {
	if b, ok := browsers[a.name]; ok {
		return b.display
	}
	return bookmark.DisplayName(a.name)
}

// Available reports whether a custom file exists or a profile was found.
func (a *Adapter) Available() bool {
	if a.config.CustomPath != "" {
		_, err := os.Stat(a.config.CustomPath)
		return err == nil
	}
	return len(a.profiles) > 0
}

func (a *Adapter) Configure(cfg input.Config) error {
	a.config = cfg
	if cfg.CustomPath == "" {
		a.profiles = discoverProfiles(a.userDataDir())
	}
	return nil
}

// Path names the file read, or the data directory and its profiles.
func (a *Adapter) Path() string {
	switch {
	case a.config.CustomPath != "":
		return a.config.CustomPath
	case len(a.profiles) == 0:
		return a.userDataDir() + " (no profiles found)"
	case len(a.profiles) == 1:
		return a.profiles[0].Path
	}
	names := make([]string, len(a.profiles))
	for i, p := range a.profiles {
		names[i] = p.Name
	}
	return a.userDataDir() + " [" + strings.Join(names, ", ") + "]"
}

func (a *Adapter) ListProfiles() ([]input.ProfileInfo, error) {
	return a.profiles, nil
}

// Read returns the bookmarks of the configured profile. Without one every
// profile is read and unreadable ones are skipped. A missing "Default"
// profile falls back to the first one found.
func (a *Adapter) Read(ctx context.Context) ([]bookmark.Entry, error) {
	if a.config.CustomPath != "" {
		return a.readFile(a.config.CustomPath, "custom")
	}
	if len(a.profiles) == 0 {
		return nil, nil
	}

	if want := a.config.Profile; want != "" {
		for _, p := range a.profiles {
			if p.Name == want || filepath.Base(filepath.Dir(p.Path)) == want {
				return a.readFile(p.Path, p.Name)
			}
		}
		if want == "Default" {
			return a.readFile(a.profiles[0].Path, a.profiles[0].Name)
		}
		return nil, fmt.Errorf("%s: profile %q not found", a.name, want)
	}

	var all []bookmark.Entry
	for _, p := range a.profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := a.readFile(p.Path, p.Name)
		if err != nil {
			continue
		}
		all = append(all, entries...)
	}
	return all, nil
}

func (a *Adapter) userDataDir() string {
	b, ok := browsers[a.name]
	if !ok {
		return ""
	}
	rel, ok := b.dirs[runtime.GOOS]
	if !ok {
		return ""
	}
	base, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		base = os.Getenv("LOCALAPPDATA")
	}
	return filepath.Join(base, rel)
}

// discoverProfiles lists the profile directories under dir that hold a
// Bookmarks file, named as in "Local State" when the browser recorded a
// name. "Default" sorts first.
func discoverProfiles(dir string) []input.ProfileInfo {
	if dir == "" {
		return nil
	}
	dirs, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := profileNames(filepath.Join(dir, "Local State"))

	var out []input.ProfileInfo
	for _, d := range dirs {
		id := d.Name()
		if !d.IsDir() || (id != "Default" && !strings.HasPrefix(id, "Profile ")) {
			continue
		}
		path := filepath.Join(dir, id, "Bookmarks")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		name := id
		if n := names[id]; n != "" {
			name = n
		}
		out = append(out, input.ProfileInfo{Name: name, Path: path, IsDefault: id == "Default"})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	if len(out) > 0 {
		out[0].IsDefault = true
	}
	return out
}

// profileNames reads profile.info_cache from the browser's Local State.
func profileNames(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var state struct {
		Profile struct {
			InfoCache map[string]struct {
				Name string `json:"name"`
			} `json:"info_cache"`
		} `json:"profile"`
	}
	if json.Unmarshal(data, &state) != nil {
		return nil
	}
	names := make(map[string]string, len(state.Profile.InfoCache))
	for id, info := range state.Profile.InfoCache {
		names[id] = info.Name
	}
	return names
}

func (a *Adapter) readFile(path, profile string) ([]bookmark.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.parse(data, profile)
}

type node struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	DateAdded string `json:"date_added"`
	Children  []node `json:"children"`
}

// rootRank orders the store's roots as the browser shows them. Unknown
// roots follow, by key.
var rootRank = map[string]int{"bookmark_bar": 1, "other": 2, "synced": 3}

func (a *Adapter) parse(data []byte, profile string) ([]bookmark.Entry, error) {
	var store struct {
		Roots map[string]json.RawMessage `json:"roots"`
	}
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("%s bookmarks: %w", a.name, err)
	}

	keys := make([]string, 0, len(store.Roots))
	for k := range store.Roots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rootRank[keys[i]], rootRank[keys[j]]
		if ri == 0 {
			ri = len(rootRank) + 1
		}
		if rj == 0 {
			rj = len(rootRank) + 1
		}
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	var entries []bookmark.Entry
	for _, k := range keys {
		var root node
		// sync_transaction_version and friends are not folders
		if json.Unmarshal(store.Roots[k], &root) != nil || root.Type != "folder" {
			continue
		}
		entries = a.collect(entries, root, profile)
	}
	return entries, nil
}

// collect appends the urls below root in document order, walking with an
// explicit stack.
func (a *Adapter) collect(entries []bookmark.Entry, root node, profile string) []bookmark.Entry {
	type frame struct {
		n    node
		path []string
	}
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.n.Type {
		case "url":
			entries = append(entries, bookmark.Entry{
				Title:      f.n.Name,
				URL:        f.n.URL,
				FolderPath: f.path,
				DateAdded:  webkitTime(f.n.DateAdded),
				Source:     a.name,
				Profile:    profile,
			})
		case "folder":
			path := f.path
			if f.n.Name != "" {
				path = append(append([]string(nil), f.path...), f.n.Name)
			}
			for i := len(f.n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n: f.n.Children[i], path: path})
			}
		}
	}
	return entries
}

// webkitTime converts a decimal count of microseconds since 1601-01-01.
// Empty, zero and malformed values give the zero time.
func webkitTime(s string) time.Time {
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil || us == 0 {
		return time.Time{}
	}
	return time.Unix(webkitEpoch+us/1e6, (us%1e6)*1e3)
}
