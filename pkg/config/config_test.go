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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "/data/xbel/bookmarks.xml", cfg.Bookmarks.File)
	assert.Equal(t, "/data/user-places.xbel", cfg.Places.SharedFile)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bookmarks:
  file: /tmp/b.xml
notify:
  transport: nats
  url: nats://localhost:4222
places:
  devices:
    - udi: /block/sdb1
      label: USB
pipeline:
  filter:
    exclude_protocols: [ftp]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/b.xml", cfg.Bookmarks.File)
	assert.Equal(t, "bookmarks", cfg.Bookmarks.Channel)
	assert.True(t, cfg.Bookmarks.ToolbarCache)
	assert.Equal(t, "nats", cfg.Notify.Transport)
	assert.Equal(t, []DeviceConfig{{UDI: "/block/sdb1", Label: "USB"}}, cfg.Places.Devices)
	assert.Equal(t, []string{"ftp"}, cfg.Pipeline.Filter.ExcludeProtocols)
	assert.Equal(t, []string{"Trash"}, cfg.Pipeline.Filter.ExcludeFolders)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "bookmarks: [\n"},
		{"transport", "notify:\n  transport: carrier-pigeon\n"},
		{"nats without url", "notify:\n  transport: nats\n"},
		{"bad pattern", "pipeline:\n  filter:\n    exclude_url_patterns: ['(']\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Places.App = "dolphin"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dolphin", got.Places.App)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), ExpandPath("~/x"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/abs", ExpandPath("/abs"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

func TestConversions(t *testing.T) {
	cfg := Default()
	opts := cfg.Pipeline.Filter.Options()
	assert.Equal(t, []string{"data", "javascript"}, opts.ExcludeProtocols)
	assert.Equal(t, 2048, opts.WarnURLLength)

	lc := LoggingConfig{Level: "debug", Format: "json"}.LoggerConfig()
	assert.Equal(t, zerolog.DebugLevel, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, zerolog.InfoLevel, LoggingConfig{}.LoggerConfig().Level)
}

func TestGetInputConfig(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.GetInputConfig("firefox").Enabled)
	assert.False(t, cfg.GetInputConfig("brave").Enabled)
	assert.Equal(t, InputConfig{}, cfg.GetInputConfig("lynx"))
	assert.Equal(t, "textual", cfg.GetOutputConfig("markdown").Style)
}
