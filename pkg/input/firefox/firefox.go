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

// Package firefox reads bookmarks and tags from a Firefox places.sqlite
// database.
package firefox

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/input"
)

// dataDirs is the Firefox data directory per platform, holding
// profiles.ini. It is relative to the home directory, or to APPDATA on
// windows.
var dataDirs = map[string]string{
	"linux":   ".mozilla/firefox",
	"darwin":  "Library/Application Support/Firefox",
	"windows": "Mozilla/Firefox",
}

const (
	placesFile = "places.sqlite"

	// fixed ids of the places roots
	tagsRootID int64 = 4

	typeBookmark = 1
	typeFolder   = 2
)

func init() {
	adapter.RegisterInput(New())
}

// Adapter implements input.Adapter for Firefox.
type Adapter struct {
	config  input.Config
	path    string
	profile string
}

// New creates a Firefox adapter reading the default profile.
func New() *Adapter {
	a := &Adapter{}
	a.path, a.profile = a.locate()
	return a
}

func (a *Adapter) Name() string { return "firefox" }

func (a *Adapter) DisplayName() string { return "Mozilla Firefox" }

// Available reports whether the selected places.sqlite exists.
func (a *Adapter) Available() bool {
	if a.path == "" {
		return false
	}
	_, err := os.Stat(a.path)
	return err == nil
}

func (a *Adapter) Configure(cfg input.Config) error {
	a.config = cfg
	a.path, a.profile = a.locate()
	return nil
}

// Path returns the database being read.
func (a *Adapter) Path() string { return a.path }

// ListProfiles returns the profiles that have a places database.
func (a *Adapter) ListProfiles() ([]input.ProfileInfo, error) {
	return discoverProfiles(dataDir()), nil
}

// Read copies the database aside, since a running Firefox keeps it locked,
// and reads it.
func (a *Adapter) Read(ctx context.Context) ([]bookmark.Entry, error) {
	if a.path == "" {
		return nil, nil
	}

	snapshot, err := copyToTemp(a.path)
	if err != nil {
		return nil, fmt.Errorf("firefox: %w", err)
	}
	defer os.Remove(snapshot)

	db, err := sql.Open("sqlite3", snapshot+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return a.readDB(ctx, db)
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "xbel-places-*.sqlite")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func dataDir() string {
	rel, ok := dataDirs[runtime.GOOS]
	if !ok {
		return ""
	}
	base, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
	}
	return filepath.Join(base, rel)
}

// locate picks the database: the custom path, then the configured
// profile, then the default profile, then the first one found.
func (a *Adapter) locate() (path, profile string) {
	if a.config.CustomPath != "" {
		return a.config.CustomPath, filepath.Base(filepath.Dir(a.config.CustomPath))
	}
	profiles := discoverProfiles(dataDir())
	if len(profiles) == 0 {
		return "", ""
	}
	if want := a.config.Profile; want != "" {
		for _, p := range profiles {
			if p.Name == want || filepath.Base(filepath.Dir(p.Path)) == want {
				return p.Path, p.Name
			}
		}
		return "", ""
	}
	for _, p := range profiles {
		if p.IsDefault {
			return p.Path, p.Name
		}
	}
	return profiles[0].Path, profiles[0].Name
}

// discoverProfiles lists the profiles of profiles.ini under dir. Without
// that file, directories holding a places database are used as profiles.
func discoverProfiles(dir string) []input.ProfileInfo {
	if dir == "" {
		return nil
	}
	var out []input.ProfileInfo
	if f, err := os.Open(filepath.Join(dir, "profiles.ini")); err == nil {
		out = parseProfilesINI(f, dir)
		f.Close()
	}
	if len(out) == 0 {
		for _, sub := range []string{dir, filepath.Join(dir, "Profiles")} {
			dirs, _ := os.ReadDir(sub)
			for _, d := range dirs {
				if d.IsDir() {
					out = append(out, input.ProfileInfo{Name: d.Name(), Path: filepath.Join(sub, d.Name(), placesFile)})
				}
			}
		}
	}

	kept := out[:0]
	for _, p := range out {
		if _, err := os.Stat(p.Path); err == nil {
			kept = append(kept, p)
		}
	}
	return kept
}

// parseProfilesINI reads the [ProfileN] sections. A profile is the
// default when it says Default=1 or an [Install...] section names its
// path.
func parseProfilesINI(r io.Reader, dir string) []input.ProfileInfo {
	type section struct {
		name string
		keys map[string]string
	}
	var sections []section
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			sections = append(sections, section{name: line[1 : len(line)-1], keys: map[string]string{}})
		case len(sections) > 0:
			if k, v, ok := strings.Cut(line, "="); ok {
				sections[len(sections)-1].keys[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}

	installed := map[string]bool{}
	for _, s := range sections {
		if strings.HasPrefix(s.name, "Install") && s.keys["Default"] != "" {
			installed[s.keys["Default"]] = true
		}
	}

	var out []input.ProfileInfo
	for _, s := range sections {
		if !strings.HasPrefix(s.name, "Profile") || s.keys["Path"] == "" {
			continue
		}
		rel := s.keys["Path"]
		path := filepath.FromSlash(rel)
		if s.keys["IsRelative"] != "0" {
			path = filepath.Join(dir, path)
		}
		name := s.keys["Name"]
		if name == "" {
			name = filepath.Base(path)
		}
		out = append(out, input.ProfileInfo{
			Name:      name,
			Path:      filepath.Join(path, placesFile),
			IsDefault: installed[rel] || s.keys["Default"] == "1",
		})
	}
	return out
}

// place is one row of moz_bookmarks with its url.
type place struct {
	id, parent, position int64
	kind                 int
	title                string
	url                  string
	added                int64
}

func (a *Adapter) readDB(ctx context.Context, db *sql.DB) ([]bookmark.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.type, b.parent, b.position, b.title, p.url, b.dateAdded
		FROM moz_bookmarks b
		LEFT JOIN moz_places p ON b.fk = p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]place)
	for rows.Next() {
		var (
			p     place
			title sql.NullString
			url   sql.NullString
			added sql.NullInt64
		)
		if err := rows.Scan(&p.id, &p.kind, &p.parent, &p.position, &title, &url, &added); err != nil {
			return nil, err
		}
		p.title, p.url, p.added = title.String, url.String, added.Int64
		byID[p.id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	children := make(map[int64][]place)
	var roots []place
	tags := make(map[string][]string)
	for _, p := range byID {
		parent, ok := byID[p.parent]
		switch {
		case !ok || p.parent == p.id:
			roots = append(roots, p)
			continue
		case p.kind == typeBookmark && parent.parent == tagsRootID && p.url != "":
			// a tag is a folder under the tags root holding the tagged urls
			tags[p.url] = append(tags[p.url], parent.title)
		}
		children[p.parent] = append(children[p.parent], p)
	}
	byPosition := func(s []place) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].position != s[j].position {
				return s[i].position < s[j].position
			}
			return s[i].id < s[j].id
		})
	}
	byPosition(roots)
	for _, s := range children {
		byPosition(s)
	}
	for _, t := range tags {
		sort.Strings(t)
	}

	type frame struct {
		p    place
		path []string
	}
	var stack []frame
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{p: roots[i]})
	}

	var entries []bookmark.Entry
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.p.kind {
		case typeFolder:
			if f.p.id == tagsRootID {
				continue
			}
			path := f.path
			if f.p.title != "" {
				path = append(append([]string(nil), f.path...), f.p.title)
			}
			kids := children[f.p.id]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{p: kids[i], path: path})
			}
		case typeBookmark:
			if f.p.url == "" || strings.HasPrefix(f.p.url, "place:") {
				continue
			}
			title := f.p.title
			if title == "" {
				title = f.p.url
			}
			var added time.Time
			if f.p.added > 0 {
				added = time.UnixMicro(f.p.added)
			}
			entries = append(entries, bookmark.Entry{
				Title:      title,
				URL:        f.p.url,
				FolderPath: f.path,
				DateAdded:  added,
				Source:     "firefox",
				Profile:    a.profile,
				Tags:       tags[f.p.url],
			})
		}
	}
	return entries, nil
}
