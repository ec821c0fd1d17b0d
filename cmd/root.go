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

// Package cmd implements the xbel CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloudygreybeard/xbel/pkg/config"
	"github.com/cloudygreybeard/xbel/pkg/logging"
	"github.com/cloudygreybeard/xbel/pkg/manager"
	"github.com/cloudygreybeard/xbel/pkg/notify"

	// Import adapters to trigger init() registration
	_ "github.com/cloudygreybeard/xbel/pkg/input/chromium"
	_ "github.com/cloudygreybeard/xbel/pkg/input/firefox"
	_ "github.com/cloudygreybeard/xbel/pkg/input/opml"
	_ "github.com/cloudygreybeard/xbel/pkg/input/safari"
	_ "github.com/cloudygreybeard/xbel/pkg/output/json"
	_ "github.com/cloudygreybeard/xbel/pkg/output/markdown"
	_ "github.com/cloudygreybeard/xbel/pkg/output/opml"
	_ "github.com/cloudygreybeard/xbel/pkg/output/yaml"
)

// app carries the global flags and what is built from them before a
// subcommand runs.
type app struct {
	cfgFile string
	file    string
	verbose bool

	cfg    config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "xbel",
		Short: "Manage XBEL bookmark files",
		Long: `xbel reads, edits and shares XBEL bookmark files.

Entries are addressed by position: "/0" is the first entry of the top
level, "/2/1" the second entry of the third one, and a trailing "+"
("/2+") the last entry of a folder.

Every edit is saved atomically and announced to the other processes
that share the file's channel, in-process by default or over NATS
when notify.transport is "nats".

Examples:
  xbel list                         # Print the whole tree
  xbel add Go https://go.dev/ --in /1
  xbel mv /3 -                      # Move /3 to the top
  xbel import --all                 # Import from every available browser
  xbel export --format html -o bookmarks.html
  xbel places watch                 # Keep the shared places file in sync
  xbel serve                        # Run as MCP server`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./xbel.yaml or the user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output to stderr")
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "bookmark file (default: bookmarks.file from the config)")

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("xbel %s (commit: %s, built: %s)\n", Version, Commit, Date))

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newMkdirCmd(a),
		newSeparatorCmd(a),
		newRmCmd(a),
		newMvCmd(a),
		newVisitCmd(a),
		newToolbarCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newPlacesCmd(a),
		newServeCmd(a),
		newAdaptersCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		path = config.LocalPath()
	}
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	lc := logging.ApplyEnv(cfg.Logging.LoggerConfig())
	if a.verbose {
		lc.Level = zerolog.DebugLevel
	}
	lc.Output = cmd.ErrOrStderr()
	a.logger = logging.New(lc)
	a.logger.Debug().Str("config", path).Msg("configuration loaded")
	return nil
}

func (a *app) bookmarksPath() string {
	if a.file != "" {
		return a.file
	}
	return a.cfg.Bookmarks.File
}

// openRegistry creates the process registry on the configured transport.
// The returned function closes the registry and then the bus.
func (a *app) openRegistry(post func(func())) (*manager.Registry, func(), error) {
	opts := manager.Options{
		Logger:             a.logger,
		Post:               post,
		RewriteChannelName: a.cfg.Bookmarks.RewriteChannel,
		NoToolbarCache:     !a.cfg.Bookmarks.ToolbarCache,
	}

	if a.cfg.Notify.Transport != "nats" {
		reg := manager.NewRegistry(nil, opts)
		return reg, func() { a.closeLogged("registry", reg.Close) }, nil
	}

	bus, err := notify.ConnectNATS(a.cfg.Notify.URL, logging.Component(a.logger, "notify"), nats.Name(a.cfg.Notify.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", a.cfg.Notify.URL, err)
	}
	reg := manager.NewRegistry(bus, opts)
	return reg, func() {
		a.closeLogged("registry", reg.Close)
		a.closeLogged("notification bus", bus.Close)
	}, nil
}

func (a *app) closeLogged(what string, closeFn func() error) {
	if err := closeFn(); err != nil && !errors.Is(err, notify.ErrClosed) {
		a.logger.Warn().Err(err).Msgf("closing %s", what)
	}
}

// withBookmarks runs fn with the manager of the bookmark file.
func (a *app) withBookmarks(fn func(m *manager.Manager) error) error {
	reg, done, err := a.openRegistry(nil)
	if err != nil {
		return err
	}
	defer done()

	m, err := reg.ManagerForFile(a.bookmarksPath(), a.cfg.Bookmarks.Channel)
	if err != nil {
		return err
	}
	m.OnError(func(err error) {
		a.logger.Error().Err(err).Msg("bookmarks could not be saved")
	})
	return fn(m)
}
