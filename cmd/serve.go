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
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cloudygreybeard/xbel/pkg/logging"
	"github.com/cloudygreybeard/xbel/pkg/manager"
	"github.com/cloudygreybeard/xbel/pkg/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as an MCP server",
		Long: `Runs xbel as an MCP (Model Context Protocol) server over the bookmark
file.

The server communicates via JSON-RPC over stdin/stdout, exposing:

Resources:
  - xbel://tree       The bookmark tree in JSON format
  - xbel://markdown   The bookmark tree in Markdown format
  - xbel://toolbar    The toolbar folder in JSON format

Tools:
  - search_bookmarks  Search bookmarks by title or URL
  - add_bookmark      Add a bookmark to a folder
  - visit_bookmark    Record a visit to a URL

Changes saved by other xbel processes on the same notification channel
are picked up while the server runs.

Add to your MCP configuration:

  {
    "mcpServers": {
      "xbel": {
        "command": "/path/to/xbel",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, cmd)
		},
	}
}

func (a *app) runServe(ctx context.Context, cmd *cobra.Command) error {
	loop := manager.NewEventLoop()
	reg, done, err := a.openRegistry(loop.Post)
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

	server := mcp.NewServer(m,
		mcp.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		mcp.WithExecutor(loop.Do),
		mcp.WithLogger(logging.Component(a.logger, "mcp")),
		mcp.WithVersion(Version),
	)

	g, ctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(ctx)
	g.Go(func() error {
		err := loop.Run(loopCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer stopLoop()
		a.logger.Info().Str("file", m.Path()).Msg("MCP server started")
		err := server.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
