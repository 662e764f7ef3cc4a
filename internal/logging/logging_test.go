package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Config{Level: "debug", Format: FormatJSON}, &buf)
	require.NoError(t, err)
	defer closeFn()

	log.Debug().Str("reason", "hands-exit").Msg("trigger")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "hands-exit", line["reason"])
	assert.Equal(t, "trigger", line["message"])
	assert.Contains(t, line, "pid")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Level: "warn", Format: FormatJSON}, &buf)
	require.NoError(t, err)

	log.Info().Msg("quiet")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("loud")
	assert.NotZero(t, buf.Len())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, _, err := New(Config{Level: "chatty"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = New(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mudra.log")

	var buf bytes.Buffer
	log, closeFn, err := New(Config{Format: FormatConsole, File: path}, &buf)
	require.NoError(t, err)

	log.Info().Msg("camera opened")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "camera opened")
	assert.Contains(t, buf.String(), "camera opened")
}
