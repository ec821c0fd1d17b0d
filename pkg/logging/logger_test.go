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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.WarnLevel, Format: "json", Output: &buf})
	logger.Info().Msg("dropped")
	logger.Warn().Str("path", "/tmp/x.xbel").Msg("kept")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["message"])
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "/tmp/x.xbel", rec["path"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG", zerolog.InfoLevel))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning", zerolog.InfoLevel))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud", zerolog.InfoLevel))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("XBEL_LOG_LEVEL", "error")
	t.Setenv("XBEL_LOG_FORMAT", "json")
	cfg := ApplyEnv(DefaultConfig())
	assert.Equal(t, zerolog.ErrorLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	t.Setenv("XBEL_LOG_FORMAT", "xml")
	assert.Equal(t, "console", ApplyEnv(DefaultConfig()).Format)
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.InfoLevel, Format: "json", Output: &buf})
	ctx := WithComponent(WithContext(context.Background(), logger), "manager")
	FromContext(ctx).Info().Msg("hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "manager", rec["component"])
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Info().Msg("nothing") })
}
