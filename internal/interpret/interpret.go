// Package interpret sends bursts of gesture frames to a vision model and
// returns the recognized sign as text.
package interpret

import (
	"context"
	"strings"

	"github.com/ayusman/mudra/internal/frame"
)

// Placeholder is the text a backend returns when no sign was recognized.
const Placeholder = "..."

// Interpreter translates a burst of frames into text in the target language.
// previous is the recent conversation, possibly prefixed with an ellipsis.
type Interpreter interface {
	Translate(ctx context.Context, frames []frame.Frame, language, previous string) (Result, error)
}

// Result is a single interpretation.
type Result struct {
	Text       string     `json:"text"`
	Confidence Confidence `json:"confidence"`
	Language   string     `json:"language"`
}

// Meaningful reports whether the result carries recognized text.
func (r Result) Meaningful() bool {
	text := strings.TrimSpace(r.Text)
	return text != "" && text != Placeholder
}

// Confidence is the model's own estimate of its answer.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence accepts English and Spanish labels in any case.
// Anything unrecognized is Low.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "alta":
		return ConfidenceHigh
	case "medium", "media":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
