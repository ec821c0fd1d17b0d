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

// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/logging"
)

// Config represents the full configuration.
type Config struct {
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Places    PlacesConfig    `yaml:"places"`
	Notify    NotifyConfig    `yaml:"notify"`
	Logging   LoggingConfig   `yaml:"logging"`
	Inputs    InputsConfig    `yaml:"inputs"`
	Outputs   OutputsConfig   `yaml:"outputs"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// BookmarksConfig locates the main bookmark file.
type BookmarksConfig struct {
	File         string `yaml:"file"`
	Channel      string `yaml:"channel"`
	ToolbarCache bool   `yaml:"toolbar_cache"`
	// RewriteChannel saves the file when its stored channel differs.
	RewriteChannel bool `yaml:"rewrite_channel"`
}

// PlacesConfig configures the places list and its shared file.
type PlacesConfig struct {
	File       string         `yaml:"file"`
	SharedFile string         `yaml:"shared_file"`
	Channel    string         `yaml:"channel"`
	App        string         `yaml:"app"`
	Predicate  string         `yaml:"device_predicate"`
	Devices    []DeviceConfig `yaml:"devices"`
}

// DeviceConfig is a statically configured device.
type DeviceConfig struct {
	UDI   string `yaml:"udi"`
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Icon  string `yaml:"icon"`
}

// NotifyConfig selects the change notification transport.
type NotifyConfig struct {
	Transport string `yaml:"transport"` // local or nats
	URL       string `yaml:"url"`
	Name      string `yaml:"name"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// InputsConfig configures input adapters.
type InputsConfig struct {
	Chrome   InputConfig `yaml:"chrome"`
	Edge     InputConfig `yaml:"edge"`
	Firefox  InputConfig `yaml:"firefox"`
	Safari   InputConfig `yaml:"safari"`
	Chromium InputConfig `yaml:"chromium"`
	Brave    InputConfig `yaml:"brave"`
}

// InputConfig configures a single input adapter.
type InputConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Profile    string `yaml:"profile"`
	CustomPath string `yaml:"custom_path"`
}

// OutputsConfig configures output adapters.
type OutputsConfig struct {
	Default  string       `yaml:"default"`
	Markdown OutputConfig `yaml:"markdown"`
	HTML     OutputConfig `yaml:"html"`
}

// OutputConfig configures a single output adapter.
type OutputConfig struct {
	Style   string            `yaml:"style"`
	Options map[string]string `yaml:"options"`
}

// PipelineConfig configures the import pipeline.
type PipelineConfig struct {
	Filter    FilterConfig    `yaml:"filter"`
	Transform TransformConfig `yaml:"transform"`
	Render    RenderConfig    `yaml:"render"`
}

// FilterConfig configures bookmark filtering.
type FilterConfig struct {
	IncludeFolders     []string `yaml:"include_folders"`
	ExcludeFolders     []string `yaml:"exclude_folders"`
	ExcludeURLPatterns []string `yaml:"exclude_url_patterns"`

	ExcludeProtocols []string `yaml:"exclude_protocols"`
	WarnProtocols    []string `yaml:"warn_protocols"`
	MaxURLLength     int      `yaml:"max_url_length"`  // 0 = no limit
	WarnURLLength    int      `yaml:"warn_url_length"` // 0 = no warning
}

// TransformConfig configures what happens to entries before they are
// written into the tree.
type TransformConfig struct {
	Deduplicate bool `yaml:"deduplicate"`
	// GroupBySource puts each import under a folder named after its source.
	GroupBySource bool `yaml:"group_by_source"`
}

// RenderConfig configures exporters.
type RenderConfig struct {
	IncludeDates bool `yaml:"include_dates"`
	IncludeTags  bool `yaml:"include_tags"`
	IncludeIcons bool `yaml:"include_icons"`
}

// Default returns a configuration with sensible defaults.
func Default() Config {
	data := DataHome()
	return Config{
		Bookmarks: BookmarksConfig{
			File:         filepath.Join(data, "xbel", "bookmarks.xml"),
			Channel:      "bookmarks",
			ToolbarCache: true,
		},
		Places: PlacesConfig{
			File:       filepath.Join(data, "xbel", "places.xbel"),
			SharedFile: filepath.Join(data, "user-places.xbel"),
			Channel:    "places",
			App:        "xbel",
		},
		Notify: NotifyConfig{
			Transport: "local",
			Name:      "xbel",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Inputs: InputsConfig{
			Chrome:  InputConfig{Enabled: true},
			Edge:    InputConfig{Enabled: true},
			Firefox: InputConfig{Enabled: true},
			Safari:  InputConfig{Enabled: true},
		},
		Outputs: OutputsConfig{
			Default:  "markdown",
			Markdown: OutputConfig{Style: "textual"},
		},
		Pipeline: PipelineConfig{
			Filter: FilterConfig{
				ExcludeFolders:   []string{"Trash"},
				ExcludeProtocols: []string{"data", "javascript"},
				WarnProtocols:    []string{"file", "chrome", "about", "blob"},
				WarnURLLength:    2048,
			},
			Transform: TransformConfig{
				GroupBySource: true,
			},
			Render: RenderConfig{
				IncludeDates: true,
				IncludeTags:  true,
			},
		},
	}
}

// Load reads configuration from a file, merging with defaults. A missing
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.expand()
	return cfg, cfg.Validate()
}

func (c *Config) expand() {
	c.Bookmarks.File = ExpandPath(c.Bookmarks.File)
	c.Places.File = ExpandPath(c.Places.File)
	c.Places.SharedFile = ExpandPath(c.Places.SharedFile)
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Notify.Transport {
	case "", "local":
	case "nats":
		if c.Notify.URL == "" {
			return errors.New("notify: nats transport needs a url")
		}
	default:
		return fmt.Errorf("notify: unknown transport %q", c.Notify.Transport)
	}
	if _, err := c.Pipeline.Filter.Options().Compile(); err != nil {
		return fmt.Errorf("pipeline.filter: %w", err)
	}
	return nil
}

// Save writes c as YAML, creating the directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "xbel", "config.yaml")
}

// LocalPath returns a local config file path if it exists.
func LocalPath() string {
	paths := []string{
		"xbel.yaml",
		"xbel.yml",
		".xbel.yaml",
		".xbel.yml",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// DataHome returns $XDG_DATA_HOME, defaulting to ~/.local/share.
func DataHome() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// GetInputConfig returns the config for a specific input adapter.
func (c *Config) GetInputConfig(name string) InputConfig {
	switch name {
	case "chrome":
		return c.Inputs.Chrome
	case "edge":
		return c.Inputs.Edge
	case "firefox":
		return c.Inputs.Firefox
	case "safari":
		return c.Inputs.Safari
	case "chromium":
		return c.Inputs.Chromium
	case "brave":
		return c.Inputs.Brave
	default:
		return InputConfig{}
	}
}

// GetOutputConfig returns the config for a specific output adapter.
func (c *Config) GetOutputConfig(name string) OutputConfig {
	switch name {
	case "markdown":
		return c.Outputs.Markdown
	case "html":
		return c.Outputs.HTML
	default:
		return OutputConfig{}
	}
}

// Options converts the filter section.
func (f FilterConfig) Options() bookmark.FilterOptions {
	return bookmark.FilterOptions{
		IncludeFolders:     f.IncludeFolders,
		ExcludeFolders:     f.ExcludeFolders,
		ExcludeURLPatterns: f.ExcludeURLPatterns,
		ExcludeProtocols:   f.ExcludeProtocols,
		WarnProtocols:      f.WarnProtocols,
		MaxURLLength:       f.MaxURLLength,
		WarnURLLength:      f.WarnURLLength,
	}
}

// LoggerConfig converts the logging section, keeping unset fields at
// their defaults.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if l.Level != "" {
		cfg.Level = logging.ParseLevel(l.Level, cfg.Level)
	}
	if l.Format != "" {
		cfg.Format = l.Format
	}
	return cfg
}
