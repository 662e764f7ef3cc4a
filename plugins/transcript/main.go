// Package main provides a transcript plugin.
// It appends every translation it receives to a JSON lines file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event       string          `json:"event"`
	Translation *Translation    `json:"translation"`
	Config      json.RawMessage `json:"config"`
}

// Translation is the payload of a translation event.
type Translation struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Confidence string    `json:"confidence"`
	Language   string    `json:"language"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	Path string `json:"path"`
}

const defaultPath = "~/.mudra/transcript.jsonl"

// entry is one line of the transcript.
type entry struct {
	At         time.Time `json:"at"`
	Language   string    `json:"language"`
	Confidence string    `json:"confidence"`
	Text       string    `json:"text"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "translation" || req.Translation == nil {
		writeErrorResponse(fmt.Sprintf("unsupported event: %s", req.Event))
		return
	}

	cfg := Config{Path: defaultPath}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	path, err := expandHome(cfg.Path)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := appendEntry(path, req.Translation); err != nil {
		writeErrorResponse(fmt.Sprintf("append transcript: %v", err))
		return
	}

	data, _ := json.Marshal(map[string]string{"path": path})
	resp := Response{Success: true, Data: data}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func appendEntry(path string, t *Translation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	return json.NewEncoder(f).Encode(entry{
		At:         at,
		Language:   t.Language,
		Confidence: t.Confidence,
		Text:       t.Text,
	})
}

func expandHome(path string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
