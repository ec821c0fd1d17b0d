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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/manager"
)

// entryAt resolves address, "" being the root.
func entryAt(m *manager.Manager, address string) (bookmark.Bookmark, error) {
	b := m.FindByAddress(address)
	if b.IsNull() {
		return b, fmt.Errorf("no bookmark at %q", address)
	}
	return b, nil
}

func groupAt(m *manager.Manager, address string) (bookmark.Group, error) {
	b, err := entryAt(m, address)
	if err != nil {
		return bookmark.Group{}, err
	}
	g, ok := b.ToGroup()
	if !ok {
		return bookmark.Group{}, fmt.Errorf("%q is not a folder", address)
	}
	return g, nil
}

// printTree writes one line per entry under g: address, then the title
// indented by depth.
func printTree(w io.Writer, g bookmark.Group) error {
	var (
		depth int
		err   error
	)
	line := func(b bookmark.Bookmark, label string) {
		if err != nil {
			return
		}
		addr, _ := b.Address()
		_, err = fmt.Fprintf(w, "%-10s %s%s\n", addr, strings.Repeat("  ", depth), label)
	}

	bookmark.Traverse(g, bookmark.TraverserFuncs{
		OnEnter: func(g bookmark.Group) {
			line(g.Bookmark, g.FullText()+"/")
			depth++
		},
		OnLeave: func(bookmark.Group) { depth-- },
		OnVisit: func(b bookmark.Bookmark) {
			if b.IsSeparator() {
				line(b, "---")
				return
			}
			line(b, fmt.Sprintf("%s <%s>", b.FullText(), b.PrettyURL()))
		},
	})
	return err
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [address]",
		Short: "Print the bookmark tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := ""
			if len(args) == 1 {
				address = args[0]
			}
			return a.withBookmarks(func(m *manager.Manager) error {
				g, err := groupAt(m, address)
				if err != nil {
					return err
				}
				return printTree(cmd.OutOrStdout(), g)
			})
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <address>",
		Short: "Print the details of one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				b, err := entryAt(m, args[0])
				if err != nil {
					return err
				}
				return showEntry(cmd.OutOrStdout(), b)
			})
		},
	}
}

func showEntry(w io.Writer, b bookmark.Bookmark) error {
	kind := "bookmark"
	switch {
	case b.IsGroup():
		kind = "folder"
	case b.IsSeparator():
		kind = "separator"
	}
	addr, _ := b.Address()

	fields := [][2]string{
		{"Address", addr},
		{"Type", kind},
		{"Title", b.FullText()},
		{"URL", b.PrettyURL()},
		{"Icon", b.Icon()},
		{"Description", b.Description()},
	}
	if t := b.TimeAdded(); !t.IsZero() {
		fields = append(fields, [2]string{"Added", t.Format(time.RFC3339)})
	}
	if t := b.TimeVisited(); !t.IsZero() {
		fields = append(fields, [2]string{"Visited", t.Format(time.RFC3339)})
	}
	if n := b.MetaDataItem(bookmark.KeyVisitCount); n != "" {
		fields = append(fields, [2]string{"Visits", n})
	}
	if tags := b.MetaDataItem(bookmark.KeyTags); tags != "" {
		fields = append(fields, [2]string{"Tags", tags})
	}
	if g, ok := b.ToGroup(); ok {
		fields = append(fields, [2]string{"Children", strconv.Itoa(len(g.Children()))})
		if g.IsToolbarGroup() {
			fields = append(fields, [2]string{"Toolbar", "yes"})
		}
	}

	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-12s %s\n", f[0]+":", f[1]); err != nil {
			return err
		}
	}
	return nil
}

func newAddCmd(a *app) *cobra.Command {
	var in, icon, desc string
	cmd := &cobra.Command{
		Use:   "add <title> <url>",
		Short: "Add a bookmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				g, err := groupAt(m, in)
				if err != nil {
					return err
				}
				b := g.AddNewBookmark(args[0], args[1], icon)
				if desc != "" {
					b.SetDescription(desc)
				}
				b.SetMetaDataItem(bookmark.KeyTimeAdded, strconv.FormatInt(time.Now().Unix(), 10), bookmark.DontOverwriteIfAlreadySet)
				return a.emitAndPrint(cmd, m, g, b)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "address of the folder (default: top level)")
	cmd.Flags().StringVar(&icon, "icon", "", "icon name (default: derived from the URL)")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	return cmd
}

func newMkdirCmd(a *app) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "mkdir <title>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				g, err := groupAt(m, in)
				if err != nil {
					return err
				}
				return a.emitAndPrint(cmd, m, g, g.CreateNewFolder(args[0]).Bookmark)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "address of the parent folder (default: top level)")
	return cmd
}

func newSeparatorCmd(a *app) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "separator",
		Short: "Append a separator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				g, err := groupAt(m, in)
				if err != nil {
					return err
				}
				return a.emitAndPrint(cmd, m, g, g.CreateNewSeparator())
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "address of the folder (default: top level)")
	return cmd
}

// emitAndPrint announces the change to g and prints the address of the
// new entry b.
func (a *app) emitAndPrint(cmd *cobra.Command, m *manager.Manager, g bookmark.Group, b bookmark.Bookmark) error {
	if b.IsNull() {
		return errors.New("entry could not be created")
	}
	if err := m.EmitChanged(g); err != nil {
		return err
	}
	addr, err := b.Address()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), addr)
	return err
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <address>",
		Short: "Delete an entry and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				b, err := entryAt(m, args[0])
				if err != nil {
					return err
				}
				parent := b.ParentGroup()
				if parent.IsNull() {
					return errors.New("the root cannot be deleted")
				}
				if !parent.DeleteBookmark(b) {
					return fmt.Errorf("cannot delete %s", args[0])
				}
				return m.EmitChanged(parent)
			})
		},
	}
}

func newMvCmd(a *app) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "mv <address> <after-address|->",
		Short: "Move an entry after another one",
		Long: `Moves the entry at <address> right after the entry at <after-address>,
into that entry's folder. With "-" the entry becomes the first one of
the folder given by --in.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				item, err := entryAt(m, args[0])
				if err != nil {
					return err
				}
				oldParent := item.ParentGroup()
				if oldParent.IsNull() {
					return errors.New("the root cannot be moved")
				}

				var (
					g     bookmark.Group
					after bookmark.Bookmark
				)
				if args[1] == "-" {
					g, err = groupAt(m, in)
				} else {
					after, err = entryAt(m, args[1])
					g = after.ParentGroup()
				}
				if err != nil {
					return err
				}
				if g.IsNull() {
					return fmt.Errorf("%q has no folder", args[1])
				}

				// the common ancestor keeps its address through the move
				from, _ := oldParent.Address()
				to, _ := g.Address()
				common := bookmark.CommonParent(from, to)

				if !g.MoveBookmark(item, after) {
					return fmt.Errorf("cannot move %s there", args[0])
				}
				changed, err := groupAt(m, common)
				if err != nil {
					changed = m.Root()
				}
				return a.emitAndPrint(cmd, m, changed, item)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", `folder for "-" (default: top level)`)
	return cmd
}

func newVisitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "visit <url>",
		Short: "Record a visit to every bookmark of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				if !m.UpdateAccessMetadata(args[0]) {
					return fmt.Errorf("no bookmark for %s", args[0])
				}
				return m.EmitChanged(bookmark.Group{})
			})
		},
	}
}

func newToolbarCmd(a *app) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "toolbar",
		Short: "Print the toolbar folder, or choose it with --set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBookmarks(func(m *manager.Manager) error {
				if set == "" {
					return printTree(cmd.OutOrStdout(), m.Toolbar())
				}
				g, err := groupAt(m, set)
				if err != nil {
					return err
				}
				root := m.Root()
				for tb := root.FindToolbar(); !tb.IsNull(); tb = root.FindToolbar() {
					tb.SetToolbarGroup(false)
				}
				g.SetToolbarGroup(true)
				return m.EmitChanged(root)
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "address of the folder to use as the toolbar")
	return cmd
}
