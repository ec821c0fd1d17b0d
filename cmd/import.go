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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/config"
	"github.com/cloudygreybeard/xbel/pkg/input"
	"github.com/cloudygreybeard/xbel/pkg/manager"
)

// Input adapter preference order
var inputPreference = []string{"chrome", "firefox", "edge", "safari", "chromium", "brave"}

type importOptions struct {
	browsers []string
	profile  string
	file     string
	all      bool
	into     string
	list     bool

	excludeProtocols []string
	warnProtocols    []string
	maxURLLength     int
	warnURLLength    int
}

func newImportCmd(a *app) *cobra.Command {
	var o importOptions
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bookmarks from browsers or bookmark files",
		Long: `Reads bookmarks from browsers (Chrome, Edge, Chromium, Brave, Firefox,
Safari) or from an OPML or Netscape HTML file and appends them to a
folder of the bookmark file.

Without --browser, --from-file or --all the first available browser in
preference order is used. With --all every enabled and available
browser is read concurrently and, when pipeline.transform.group_by_source
is set, each one gets its own folder.

Examples:
  xbel import                       # First available browser
  xbel import -b firefox -p work    # Specific browser and profile
  xbel import --all --into /3       # Every browser, into folder /3
  xbel import --from-file x.html    # Netscape HTML or OPML file
  xbel import --list                # List browsers and profiles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.list {
				return listProfiles(cmd.OutOrStdout())
			}
			return a.runImport(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&o.browsers, "browser", "b", nil, "browsers to read (default: first available)")
	f.StringVarP(&o.profile, "profile", "p", "", "profile name (default: Default or all with --all)")
	f.StringVar(&o.file, "from-file", "", "OPML or Netscape HTML file to import")
	f.BoolVar(&o.all, "all", false, "read from all available browsers and profiles")
	f.StringVar(&o.into, "into", "", "address of the target folder (default: top level)")
	f.BoolVar(&o.list, "list", false, "list available browser profiles and exit")

	// URL protocol filtering flags
	f.StringSliceVar(&o.excludeProtocols, "exclude-protocols", nil, "protocols to exclude (e.g., data,javascript)")
	f.StringSliceVar(&o.warnProtocols, "warn-protocols", nil, "protocols that trigger warnings (e.g., file,chrome)")
	f.IntVar(&o.maxURLLength, "max-url-length", 0, "exclude URLs longer than this (0 = use config default)")
	f.IntVar(&o.warnURLLength, "warn-url-length", 0, "warn on URLs longer than this (0 = use config default)")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, o importOptions) error {
	adapters, err := a.selectInputs(o)
	if err != nil {
		return err
	}

	collection, err := input.ReadAll(cmd.Context(), adapters, a.logger)
	if err != nil {
		return err
	}
	if collection.Count() == 0 {
		return fmt.Errorf("no bookmarks found")
	}

	filterOpts := a.cfg.Pipeline.Filter.Options()
	if len(o.excludeProtocols) > 0 {
		filterOpts.ExcludeProtocols = o.excludeProtocols
	}
	if len(o.warnProtocols) > 0 {
		filterOpts.WarnProtocols = o.warnProtocols
	}
	if o.maxURLLength > 0 {
		filterOpts.MaxURLLength = o.maxURLLength
	}
	if o.warnURLLength > 0 {
		filterOpts.WarnURLLength = o.warnURLLength
	}

	result, err := bookmark.Filter(collection.Entries, filterOpts)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		a.logger.Warn().Msg(w)
	}
	if result.Excluded > 0 {
		a.logger.Info().Int("excluded", result.Excluded).Interface("reasons", result.Reasons).Msg("entries excluded by filter rules")
	}

	entries := result.Entries
	if a.cfg.Pipeline.Transform.Deduplicate {
		entries = bookmark.Deduplicate(entries)
	}
	if o.all && a.cfg.Pipeline.Transform.GroupBySource {
		for i := range entries {
			entries[i].FolderPath = append([]string{bookmark.DisplayName(entries[i].Source)}, entries[i].FolderPath...)
		}
	}

	return a.withBookmarks(func(m *manager.Manager) error {
		g, err := groupAt(m, o.into)
		if err != nil {
			return err
		}
		n := bookmark.Populate(g, entries)
		if err := m.EmitChanged(g); err != nil {
			return err
		}
		for _, s := range collection.Sources {
			a.logger.Debug().Str("source", s.Name).Str("path", s.Path).Int("entries", s.Count).Msg("imported")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmarks\n", n)
		return err
	})
}

// selectInputs configures the adapters named by o.
func (a *app) selectInputs(o importOptions) ([]input.Adapter, error) {
	if o.file != "" {
		inp, ok := adapter.GetInput("opml")
		if !ok {
			return nil, fmt.Errorf("file import is not available")
		}
		if err := inp.Configure(input.Config{Enabled: true, CustomPath: o.file}); err != nil {
			return nil, err
		}
		return []input.Adapter{inp}, nil
	}

	var names []string
	switch {
	case len(o.browsers) > 0:
		names = o.browsers
	case o.all:
		for _, name := range inputPreference {
			inp, ok := adapter.GetInput(name)
			if ok && a.cfg.GetInputConfig(name).Enabled && inp.Available() {
				names = append(names, name)
			}
		}
	default:
		name, ok := a.preferredInput()
		if !ok {
			return nil, fmt.Errorf("no available browser found")
		}
		names = []string{name}
	}

	var adapters []input.Adapter
	for _, name := range names {
		inp, ok := adapter.GetInput(name)
		if !ok {
			return nil, fmt.Errorf("unknown browser: %s (available: %v)", name, adapter.ListInputs())
		}
		if err := inp.Configure(a.inputConfig(name, o)); err != nil {
			return nil, fmt.Errorf("configuring %s: %w", name, err)
		}
		a.logger.Debug().Str("browser", name).Str("path", inp.Path()).Msg("reading")
		adapters = append(adapters, inp)
	}
	return adapters, nil
}

func (a *app) preferredInput() (string, bool) {
	for _, name := range inputPreference {
		inp, ok := adapter.GetInput(name)
		if ok && a.cfg.GetInputConfig(name).Enabled && inp.Available() {
			return name, true
		}
	}
	return "", false
}

func (a *app) inputConfig(name string, o importOptions) input.Config {
	ic := a.cfg.GetInputConfig(name)
	profile := ic.Profile
	switch {
	case o.profile != "":
		profile = o.profile
	case o.all:
		// empty reads every profile
		profile = ""
	case profile == "":
		profile = "Default"
	}
	return input.Config{
		Enabled:    true,
		Profile:    profile,
		CustomPath: config.ExpandPath(ic.CustomPath),
	}
}

func listProfiles(w io.Writer) error {
	fmt.Fprintln(w, "Available browser profiles:")
	fmt.Fprintln(w)

	for _, name := range inputPreference {
		inp, ok := adapter.GetInput(name)
		if !ok {
			continue
		}

		status := "not available"
		if inp.Available() {
			status = "available"
		}

		fmt.Fprintf(w, "  %s (%s)\n", inp.DisplayName(), status)
		fmt.Fprintf(w, "    Path: %s\n", inp.Path())

		if inp.Available() {
			profiles, err := inp.ListProfiles()
			if err == nil && len(profiles) > 0 {
				fmt.Fprintf(w, "    Profiles:\n")
				for _, p := range profiles {
					def := ""
					if p.IsDefault {
						def = " (default)"
					}
					fmt.Fprintf(w, "      - %s%s\n", p.Name, def)
				}
			}
		}
		fmt.Fprintln(w)
	}

	return nil
}
