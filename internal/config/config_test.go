package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/sensor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Millisecond, cfg.Pipeline.Tick)
	assert.Equal(t, "Spanish", cfg.Engine.Language)
	assert.Equal(t, 0.5, cfg.Engine.StartThreshold)
	assert.Equal(t, 0.03, cfg.Engine.SilenceThreshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.SilencePause)
	assert.Equal(t, interpret.ProviderGemini, cfg.Interpreter.Provider)
	assert.True(t, strings.HasSuffix(cfg.Store.Path, dbFileName))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  language: English
  silence_pause: 2s
  hands_lost_buffer: 500ms
sensor:
  source: frame-diff
interpreter:
  provider: demo
camera:
  device: 1
server:
  enabled: false
store:
  path: ~/history.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "English", cfg.Engine.Language)
	assert.Equal(t, 2*time.Second, cfg.Engine.SilencePause)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.HandsLostBuffer)
	assert.Equal(t, 10*time.Second, cfg.Engine.MaxDuration, "unset keys keep defaults")
	assert.Equal(t, 25, cfg.Engine.FrameCap)
	assert.Equal(t, sensor.SourceFrameDiff, cfg.Sensor.Source)
	assert.Equal(t, interpret.ProviderDemo, cfg.Interpreter.Provider)
	assert.Equal(t, 1, cfg.Camera.Device)
	assert.False(t, cfg.Server.Enabled)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "history.db"), cfg.Store.Path)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "engine:\n  silence_pouse: 2s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "silence_pouse")
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "engine:\n  silence_pause: soon\n"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "thresholds inverted", body: "engine:\n  start_threshold: 0.01\n"},
		{name: "unknown provider", body: "interpreter:\n  provider: llama\n"},
		{name: "bad sensor source", body: "sensor:\n  source: radar\n"},
		{name: "negative camera", body: "camera:\n  device: -1\n"},
		{name: "tick longer than debounce", body: "pipeline:\n  tick: 1s\n"},
		{name: "server without addr", body: "server:\n  enabled: true\n  addr: \"\"\n"},
		{name: "negative history", body: "store:\n  max_history: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestValidate_DoesNotRequireAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Interpreter.APIKey = ""
	assert.NoError(t, cfg.Validate())
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Engine.Language = "Portuguese"
	cfg.Engine.SilencePause = 1750 * time.Millisecond

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "silence_pause: 1.75s")

	got := Default()
	require.NoError(t, Decode(bytes.NewReader(data), &got))
	assert.Equal(t, cfg, got)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Interpreter.APIKey = "secret"

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Interpreter.APIKey)
	assert.Equal(t, "secret", cfg.Interpreter.APIKey)

	data, err := Marshal(red)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}
