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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/logging"
	"github.com/cloudygreybeard/xbel/pkg/manager"
	"github.com/cloudygreybeard/xbel/pkg/places"
)

func newPlacesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "places",
		Short: "Manage the places list and its shared copy",
		Long: `The places list holds system locations (home, root, trash), devices
and user entries. User entries are kept in step with a desktop-wide
shared file that other file managers edit.`,
	}
	cmd.AddCommand(newPlacesSyncCmd(a), newPlacesWatchCmd(a), newPlacesListCmd(a))
	return cmd
}

func newPlacesSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the places list with the shared file once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// a one-shot run drops watcher and bus callbacks
			reg, done, err := a.openRegistry(func(func()) {})
			if err != nil {
				return err
			}
			defer done()

			private, rec, err := a.openPlaces(reg)
			if err != nil {
				return err
			}
			defer rec.Close()

			added, removed, err := a.refreshPlaces(private)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Places synced (%d added, %d removed)\n", added, removed)
			return err
		},
	}
}

func newPlacesWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the places list and the shared file in step until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loop := manager.NewEventLoop()
			reg, done, err := a.openRegistry(loop.Post)
			if err != nil {
				return err
			}
			defer done()

			private, rec, err := a.openPlaces(reg)
			if err != nil {
				return err
			}
			defer rec.Close()

			if _, _, err := a.refreshPlaces(private); err != nil {
				return err
			}

			a.logger.Info().Str("shared", a.cfg.Places.SharedFile).Msg("watching places")
			if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newPlacesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the places shown to the configured application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, done, err := a.openRegistry(nil)
			if err != nil {
				return err
			}
			defer done()

			m, err := reg.ManagerForFile(a.cfg.Places.File, a.cfg.Places.Channel)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, b := range places.Visible(m.Root(), a.cfg.Places.App) {
				kind := "user"
				switch {
				case b.MetaDataItem(bookmark.KeyUDI) != "":
					kind = "device"
				case places.IsSystemItem(b):
					kind = "system"
				}
				if _, err := fmt.Fprintf(w, "%-7s %-20s %s\n", kind, b.FullText(), b.PrettyURL()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// openPlaces opens the private places list and the shared file and
// starts reconciling them.
func (a *app) openPlaces(reg *manager.Registry) (*manager.Manager, *places.Reconciler, error) {
	private, err := reg.ManagerForFile(a.cfg.Places.File, a.cfg.Places.Channel)
	if err != nil {
		return nil, nil, err
	}
	shared, err := reg.ManagerForExternalFile(a.cfg.Places.SharedFile)
	if err != nil {
		return nil, nil, err
	}
	private.OnError(func(err error) {
		a.logger.Error().Err(err).Msg("places could not be saved")
	})
	rec := places.New(private, shared, places.WithLogger(logging.Component(a.logger, "places")))
	return private, rec, nil
}

// refreshPlaces seeds missing system places and brings the device
// entries in line with the configured devices.
func (a *app) refreshPlaces(private *manager.Manager) (added, removed int, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return 0, 0, err
	}
	root := private.Root()
	added = places.EnsureSystemPlaces(root, home)

	devices := make(places.StaticDevices, 0, len(a.cfg.Places.Devices))
	for _, d := range a.cfg.Places.Devices {
		devices = append(devices, places.Device{UDI: d.UDI, Label: d.Label, URL: d.URL, Icon: d.Icon})
	}
	da, dr := places.SyncDevices(root, devices, a.cfg.Places.Predicate)
	added += da
	removed += dr

	if added+removed == 0 {
		return 0, 0, nil
	}
	a.logger.Debug().Int("added", added).Int("removed", removed).Msg("places refreshed")
	return added, removed, private.EmitChanged(bookmark.Group{})
}
