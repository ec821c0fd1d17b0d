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
	"fmt"
	"regexp"
	"strings"
)

// FilterOptions configures which imported entries are kept.
type FilterOptions struct {
	IncludeFolders     []string // keep only entries under these folders
	ExcludeFolders     []string // drop entries under these folders
	ExcludeURLPatterns []string // drop URLs matching these regular expressions

	ExcludeProtocols []string // e.g. "data", "javascript"
	WarnProtocols    []string // kept, but reported
	MaxURLLength     int      // 0 = no limit
	WarnURLLength    int      // 0 = no warning
}

// FilterResult holds the kept entries and what happened to the rest.
type FilterResult struct {
	Entries  []Entry
	Warnings []string
	Excluded int
	Reasons  map[string]int // exclusion reason -> count
}

// Matcher is a compiled FilterOptions.
type Matcher struct {
	opts     FilterOptions
	patterns []*regexp.Regexp
	exclude  map[string]bool
	warn     map[string]bool
}

// Compile validates the URL patterns and prepares the protocol sets.
func (o FilterOptions) Compile() (*Matcher, error) {
	m := &Matcher{
		opts:    o,
		exclude: make(map[string]bool),
		warn:    make(map[string]bool),
	}
	for _, p := range o.ExcludeURLPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	for _, p := range o.ExcludeProtocols {
		m.exclude[strings.ToLower(p)] = true
	}
	for _, p := range o.WarnProtocols {
		m.warn[strings.ToLower(p)] = true
	}
	return m, nil
}

// Check returns a non-empty reason when e must be dropped, and any
// warnings for an entry that is kept.
func (m *Matcher) Check(e Entry) (reason string, warnings []string) {
	folder := strings.Join(e.FolderPath, "/")
	proto := Protocol(e.URL)

	switch {
	case m.exclude[proto]:
		return fmt.Sprintf("excluded protocol '%s'", proto), nil
	case m.opts.MaxURLLength > 0 && len(e.URL) > m.opts.MaxURLLength:
		return "URL too long", nil
	}

	if len(m.opts.IncludeFolders) > 0 && !containsAny(folder, m.opts.IncludeFolders) {
		return "not in included folders", nil
	}
	for _, exc := range m.opts.ExcludeFolders {
		if strings.Contains(folder, exc) {
			return fmt.Sprintf("in excluded folder '%s'", exc), nil
		}
	}
	for _, p := range m.patterns {
		if p.MatchString(e.URL) {
			return "matches excluded URL pattern", nil
		}
	}

	if m.warn[proto] {
		warnings = append(warnings, fmt.Sprintf("bookmark '%s' uses protocol '%s': %s",
			Elide(e.Title, 40), proto, Elide(e.URL, 60)))
	}
	if m.opts.WarnURLLength > 0 && len(e.URL) > m.opts.WarnURLLength {
		warnings = append(warnings, fmt.Sprintf("bookmark '%s' has long URL (%d chars): %s",
			Elide(e.Title, 40), len(e.URL), Elide(e.URL, 60)))
	}
	return "", warnings
}

// Filter applies opts to entries.
func Filter(entries []Entry, opts FilterOptions) (FilterResult, error) {
	m, err := opts.Compile()
	if err != nil {
		return FilterResult{}, err
	}
	res := FilterResult{Reasons: make(map[string]int)}
	for _, e := range entries {
		reason, warnings := m.Check(e)
		if reason != "" {
			res.Excluded++
			res.Reasons[reason]++
			continue
		}
		res.Warnings = append(res.Warnings, warnings...)
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Protocol returns the lower-cased scheme of a URL, or "".
func Protocol(url string) string {
	idx := strings.Index(url, ":")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(url[:idx])
}

// Deduplicate keeps the first entry for each URL.
func Deduplicate(entries []Entry) []Entry {
	seen := make(map[string]bool)
	var out []Entry
	for _, e := range entries {
		if !seen[e.URL] {
			seen[e.URL] = true
			out = append(out, e)
		}
	}
	return out
}
