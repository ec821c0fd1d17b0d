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

// Package input provides the Adapter interface for bookmark sources.
//
// Input adapters read bookmarks from browsers or interchange files into
// flat bookmark.Entry records, which the import command writes into an
// XBEL group with bookmark.Populate. Each adapter registers itself with
// the adapter registry from an init function:
//
//	func init() {
//	    adapter.RegisterInput(New())
//	}
//
// and is linked into the binary by a blank import in cmd/root.go.
package input

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
)

// Adapter is the interface for bookmark input sources.
type Adapter interface {
	// Name returns the unique lowercase identifier used in configuration
	// and command-line flags, e.g. "chrome" or "firefox".
	Name() string

	// DisplayName returns a human-friendly name.
	DisplayName() string

	// Available reports whether the source can be read. It must be fast
	// and must not touch the network.
	Available() bool

	// Path describes what is being read, for logs.
	Path() string

	// Configure is called before Read.
	Configure(cfg Config) error

	// ListProfiles returns the profiles of the source, or nil when the
	// source has none.
	ListProfiles() ([]ProfileInfo, error)

	// Read fetches every entry. Entry.Source is set to Name().
	Read(ctx context.Context) ([]bookmark.Entry, error)
}

// Config holds adapter-specific configuration passed at runtime.
type Config struct {
	Enabled bool

	// Profile selects one profile; "" reads the default or all of them.
	Profile string

	// CustomPath overrides where the source is read from.
	CustomPath string

	Options map[string]any
}

// ProfileInfo describes an available profile within an input source.
type ProfileInfo struct {
	Name      string
	Path      string
	IsDefault bool
}

// ReadAll reads every adapter concurrently and collects the results in
// the order given. A failing source is logged and skipped; the error is
// returned only when ctx is done.
func ReadAll(ctx context.Context, adapters []Adapter, logger zerolog.Logger) (*bookmark.Collection, error) {
	results := make([][]bookmark.Entry, len(adapters))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			entries, err := a.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Str("source", a.Name()).Msg("skipping source")
				return nil
			}
			results[i] = entries
			logger.Debug().Str("source", a.Name()).Int("entries", len(entries)).Msg("source read")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}

	coll := bookmark.NewCollection()
	for i, a := range adapters {
		if results[i] == nil {
			continue
		}
		coll.Add(results[i], bookmark.SourceInfo{Name: a.Name(), Path: a.Path()})
	}
	return coll, nil
}
