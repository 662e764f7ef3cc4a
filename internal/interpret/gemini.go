package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ayusman/mudra/internal/frame"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// Gemini implements Interpreter with the Gemini generateContent API.
type Gemini struct {
	cfg backendConfig
}

// NewGemini creates a Gemini interpreter.
func NewGemini(cfg Config) *Gemini {
	b := newBackendConfig(cfg)
	if b.model == "" {
		b.model = defaultGeminiModel
	}
	if b.baseURL == "" {
		b.baseURL = defaultGeminiBaseURL
	}
	return &Gemini{cfg: b}
}

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	GenerationConfig  geminiConfig      `json:"generationConfig"`
	SystemInstruction *geminiSystemInst `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiConfig struct {
	Temperature      float64       `json:"temperature"`
	ResponseMimeType string        `json:"responseMimeType"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
}

type geminiSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]geminiSchema `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

type geminiSystemInst struct {
	Parts []geminiPart `json:"parts"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

var resultSchema = &geminiSchema{
	Type: "OBJECT",
	Properties: map[string]geminiSchema{
		"traduccion":       {Type: "STRING"},
		"confianza_modelo": {Type: "STRING"},
		"target_language":  {Type: "STRING"},
	},
	Required: []string{"traduccion", "confianza_modelo", "target_language"},
}

func (g *Gemini) buildRequest(frames []frame.Frame, language, previous string) geminiRequest {
	parts := make([]geminiPart, 0, len(frames)+1)
	for _, f := range frames {
		parts = append(parts, geminiPart{
			InlineData: &geminiBlob{MimeType: frame.MimeJPEG, Data: f.Base64()},
		})
	}
	parts = append(parts, geminiPart{Text: userPrompt(language, previous)})

	return geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiConfig{
			Temperature:      g.cfg.temperature,
			ResponseMimeType: "application/json",
			ResponseSchema:   resultSchema,
		},
		SystemInstruction: &geminiSystemInst{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
	}
}

func (g *Gemini) Translate(ctx context.Context, frames []frame.Frame, language, previous string) (Result, error) {
	frames = usableFrames(frames)
	if len(frames) == 0 {
		return Result{}, ErrNoFrames
	}

	jsonBody, err := json.Marshal(g.buildRequest(frames, language, previous))
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	// Keep the key out of the URL: transport errors quote it.
	url := fmt.Sprintf("%s/%s:generateContent", g.cfg.baseURL, g.cfg.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.apiKey)

	resp, err := g.cfg.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var geminiResp geminiResponse
	jsonErr := json.Unmarshal(body, &geminiResp)

	if geminiResp.Error != nil {
		code := geminiResp.Error.Code
		if code == 0 {
			code = resp.StatusCode
		}
		msg := geminiResp.Error.Message
		if geminiResp.Error.Status != "" {
			msg = geminiResp.Error.Status + ": " + msg
		}
		return Result{}, &APIError{Provider: "gemini", StatusCode: code, Message: msg}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, &APIError{Provider: "gemini", StatusCode: resp.StatusCode, Message: string(body)}
	}
	if jsonErr != nil {
		return Result{}, fmt.Errorf("unmarshal response: %w", jsonErr)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return Result{}, ErrEmptyResponse
	}

	return parseResult(geminiResp.Candidates[0].Content.Parts[0].Text, language)
}
