// Package plugin runs external programs that receive every surfaced
// translation, such as a transcript writer or a speech synthesizer.
package plugin

import (
	"encoding/json"
	"time"
)

// EventTranslation is the only event delivered to plugins so far.
const EventTranslation = "translation"

// Manifest describes a plugin's metadata and the events it accepts.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Accepts reports whether the plugin subscribed to event. A manifest
// without events accepts everything.
func (m Manifest) Accepts(event string) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
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

// Request represents a request written to a plugin's stdin.
type Request struct {
	Event       string          `json:"event"`
	Translation *Translation    `json:"translation,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Response represents the response a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
