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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/manager"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

type exportOptions struct {
	format   string
	style    string
	output   string
	from     string
	title    string
	sort     bool
	metadata bool
}

func newExportCmd(a *app) *cobra.Command {
	var o exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the bookmark file to another format",
		Long: `Renders a folder of the bookmark file, the whole file by default, as
markdown, json, yaml, opml or Netscape html.

Without --format the format follows the extension of --output, and then
outputs.default from the configuration.

Examples:
  xbel export                          # Markdown to stdout
  xbel export -o bookmarks.html        # Netscape HTML, for browser import
  xbel export --format json --style flat
  xbel export --from /2 --sort -o work.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.format, "format", "", "output format (see 'xbel adapters')")
	f.StringVar(&o.style, "style", "", "format-specific style (markdown: textual, table, yaml; json/yaml: tree, flat)")
	f.StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&o.from, "from", "", "address of the folder to export (default: everything)")
	f.StringVar(&o.title, "title", "", "document title")
	f.BoolVar(&o.sort, "sort", false, "sort each folder by title, folders first")
	f.BoolVar(&o.metadata, "metadata", false, "include generation metadata")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, o exportOptions) error {
	out, err := a.selectOutput(o)
	if err != nil {
		return err
	}

	oc := a.cfg.GetOutputConfig(out.Name())
	options := make(map[string]any, len(oc.Options)+1)
	for k, v := range oc.Options {
		options[k] = v
	}
	if oc.Style != "" {
		options["style"] = oc.Style
	}
	if err := out.Configure(output.Config{Options: options}); err != nil {
		return fmt.Errorf("configuring %s: %w", out.Name(), err)
	}

	render := a.cfg.Pipeline.Render
	opts := output.RenderOptions{
		IncludeMetadata: o.metadata,
		IncludeDates:    render.IncludeDates,
		IncludeTags:     render.IncludeTags,
		IncludeIcons:    render.IncludeIcons,
		SortAlpha:       o.sort,
		Style:           o.style,
		Title:           o.title,
	}

	var data []byte
	err = a.withBookmarks(func(m *manager.Manager) error {
		g, err := groupAt(m, o.from)
		if err != nil {
			return err
		}
		data, err = out.Render(g, opts)
		return err
	})
	if err != nil {
		return err
	}

	if o.output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(o.output), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(o.output, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	a.logger.Info().Str("file", o.output).Str("format", out.Name()).Msg("exported")
	return nil
}

func (a *app) selectOutput(o exportOptions) (output.Adapter, error) {
	name := o.format
	if name == "" && o.output != "" {
		if out, ok := adapter.OutputForFile(o.output); ok {
			return out, nil
		}
	}
	if name == "" {
		name = a.cfg.Outputs.Default
	}
	out, ok := adapter.GetOutput(name)
	if !ok {
		return nil, fmt.Errorf("unknown format: %s (available: %v)", name, adapter.ListOutputs())
	}
	return out, nil
}
