package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/frame"
)

// minFrameBytes filters out truncated or blank stills.
const minFrameBytes = 100

const systemInstruction = `You are an expert Sign Language Translator.
Task: Analyze the sequence of images (a short video burst) and identify the sign being performed.

Context:
- The user is performing a sign.
- "Previous Context" is the text already translated.

Instructions:
1. Identify the sign clearly (e.g., "Hello", "Thank you", "Family").
2. Return ONLY the translation of the current gesture.
3. If the user is holding the SAME sign as the previous context, repeat the word.
4. If no clear sign is detected (hands down, blurry, nothing), return "...".

Return JSON with the keys "traduccion", "confianza_modelo" (High, Medium or Low) and "target_language".`

func userPrompt(language, previous string) string {
	return fmt.Sprintf("Target Language: %s.\nPrevious Context: %q.\nIdentify the sign.", language, previous)
}

// usableFrames drops frames too small to be a real image.
func usableFrames(frames []frame.Frame) []frame.Frame {
	out := make([]frame.Frame, 0, len(frames))
	for _, f := range frames {
		if len(f.Data) > minFrameBytes {
			out = append(out, f)
		}
	}
	return out
}

type wireResult struct {
	Translation    string `json:"traduccion"`
	Confidence     string `json:"confianza_modelo"`
	TargetLanguage string `json:"target_language"`
}

// parseResult decodes the model's JSON answer, tolerating markdown fences.
func parseResult(text, language string) (Result, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return Result{}, ErrEmptyResponse
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return Result{}, fmt.Errorf("unmarshal result: %w", err)
	}

	res := Result{
		Text:       strings.TrimSpace(wire.Translation),
		Confidence: ParseConfidence(wire.Confidence),
		Language:   wire.TargetLanguage,
	}
	if res.Language == "" {
		res.Language = language
	}
	return res, nil
}
