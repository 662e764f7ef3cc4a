// Package main provides a speech plugin for macOS.
// It reads translations aloud with the say command, picking a voice per
// target language.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event       string          `json:"event"`
	Translation *Translation    `json:"translation"`
	Config      json.RawMessage `json:"config"`
}

// Translation is the part of the payload this plugin reads.
type Translation struct {
	Text       string `json:"text"`
	Confidence string `json:"confidence"`
	Language   string `json:"language"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	Voices        map[string]string `json:"voices"`
	MinConfidence string            `json:"min_confidence"`
	Rate          int               `json:"rate"`
}

// confidenceRank orders the confidence labels.
var confidenceRank = map[string]int{
	"Low":    0,
	"Medium": 1,
	"High":   2,
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

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	t := req.Translation
	if !loudEnough(t.Confidence, cfg.MinConfidence) {
		writeSuccessResponse(false)
		return
	}

	if err := say(t.Text, cfg.Voices[t.Language], cfg.Rate); err != nil {
		writeErrorResponse(fmt.Sprintf("say failed: %v", err))
		return
	}

	writeSuccessResponse(true)
}

func loudEnough(confidence, min string) bool {
	if min == "" {
		return true
	}
	return confidenceRank[confidence] >= confidenceRank[min]
}

// say speaks text with the given voice; an empty voice uses the system default.
func say(text, voice string, rate int) error {
	args := []string{}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if rate > 0 {
		args = append(args, "-r", fmt.Sprint(rate))
	}
	args = append(args, "--", text)

	cmd := exec.Command("say", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(spoken bool) {
	data, _ := json.Marshal(map[string]bool{"spoken": spoken})
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
