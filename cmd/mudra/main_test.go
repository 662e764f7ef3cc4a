package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/store"
)

func writeConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "data", "mudra.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	yaml := "store:\n  path: " + dbPath + "\ninterpreter:\n  api_key: sk-secret\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "mudra version dev\n", execute(t, "version"))
}

func TestConfigCommand_MasksKey(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	out := execute(t, "config", "--config", cfgPath)

	assert.Contains(t, out, "path: "+dbPath)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "sk-secret")
}

func TestHistoryCommands(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	out := execute(t, "history", "list", "--config", cfgPath)
	assert.Equal(t, "No translations yet.\n", out)

	s, err := store.New(dbPath)
	require.NoError(t, err)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, text := range []string{"Hola", "Gracias"} {
		require.NoError(t, s.Translations().Create(&store.Translation{
			ID:         "tr-" + text,
			Text:       text,
			Confidence: "High",
			Language:   "Spanish",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Close())

	out = execute(t, "history", "list", "--config", cfgPath, "--language", "es")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TEXT")
	assert.Contains(t, lines[1], "Gracias")
	assert.Contains(t, lines[2], "Hola")

	out = execute(t, "history", "clear", "--config", cfgPath)
	assert.Equal(t, "Deleted 2 translations.\n", out)
}
