// Package main provides a keyboard plugin for macOS.
// It types each translation into the focused application via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event       string          `json:"event"`
	Translation *Translation    `json:"translation"`
	Config      json.RawMessage `json:"config"`
}

// Translation is the part of the payload this plugin reads.
type Translation struct {
	Text string `json:"text"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	// Separator is typed after each translation.
	Separator string `json:"separator"`
	// Enter presses return after typing.
	Enter bool `json:"enter"`
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

	cfg := Config{Separator: " "}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	text := strings.TrimSpace(req.Translation.Text)
	if text == "" {
		writeErrorResponse("text is required")
		return
	}

	if err := runAppleScript(buildTypeScript(text+cfg.Separator, cfg.Enter)); err != nil {
		writeErrorResponse(fmt.Sprintf("typing failed: %v", err))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// buildTypeScript generates an AppleScript that types text.
func buildTypeScript(text string, enter bool) string {
	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escapeAppleScript(text))
	if enter {
		script += "\n" + `tell application "System Events" to key code 36`
	}
	return script
}

// escapeAppleScript escapes backslashes and quotes for a string literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
