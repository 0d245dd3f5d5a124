// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetna-wellness/chetna/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"trace", zerolog.TraceLevel, false},
		{"panic", zerolog.NoLevel, true},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetup_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := Setup(config.LoggingConfig{Level: "info", Format: "auto"}, Options{Stderr: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug().Msg("hidden")
	logger.Info().Str("component", "chat").Msg("mounted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "mounted", entry["message"])
	assert.Equal(t, "chat", entry["component"])
	assert.Equal(t, "chetna", entry["app"])
}

func TestSetup_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := Setup(config.LoggingConfig{Level: "debug", Format: "console"}, Options{Stderr: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestSetup_QuietWritesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHETNA_HOME", dir)

	var buf bytes.Buffer
	logger, closer, err := Setup(config.LoggingConfig{Level: "info", Format: "auto"}, Options{Quiet: true, Stderr: &buf})
	require.NoError(t, err)
	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(filepath.Join(dir, "logs", "chetna.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestSetup_BadLevel(t *testing.T) {
	_, closer, err := Setup(config.LoggingConfig{Level: "shout"}, Options{})
	assert.Error(t, err)
	assert.NotNil(t, closer)
}
