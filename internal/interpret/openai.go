package interpret

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ayusman/mudra/internal/frame"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI implements Interpreter with the chat completions API and image
// content parts.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAI creates an OpenAI interpreter.
func NewOpenAI(cfg Config) *OpenAI {
	b := newBackendConfig(cfg)
	if b.model == "" {
		b.model = defaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(b.apiKey),
		option.WithHTTPClient(b.http),
		// a rate limit must surface to the caller's cooldown, not be retried
		option.WithMaxRetries(0),
	}
	if b.baseURL != "" {
		opts = append(opts, option.WithBaseURL(b.baseURL))
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       b.model,
		temperature: b.temperature,
	}
}

func (o *OpenAI) Translate(ctx context.Context, frames []frame.Frame, language, previous string) (Result, error) {
	frames = usableFrames(frames)
	if len(frames) == 0 {
		return Result{}, ErrNoFrames
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(frames)+1)
	for _, f := range frames {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: f.DataURL(),
		}))
	}
	parts = append(parts, openai.TextContentPart(userPrompt(language, previous)))

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(parts),
		},
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Result{}, &APIError{Provider: "openai", StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return Result{}, ErrEmptyResponse
	}

	return parseResult(completion.Choices[0].Message.Content, language)
}
