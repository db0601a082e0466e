package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewStderr(t *testing.T) {
	logger, closer, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	assert.NoError(t, closer.Close())
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := build(&buf, "json", time.RFC3339, zerolog.InfoLevel)

	logger.Debug().Msg("hidden")
	logger.Info().Str("series", "Close").Msg("order selected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order selected", entry["message"])
	assert.Equal(t, "Close", entry["series"])
	assert.Equal(t, "info", entry["level"])
}

func TestBuildConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := build(&buf, "console", time.Kitchen, zerolog.InfoLevel)
	logger.Info().Msg("run complete")
	assert.Contains(t, buf.String(), "run complete")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arimabt.log")
	logger, closer, err := New(Config{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info().Msg("written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}
