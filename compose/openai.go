package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig configures an OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // empty = api.openai.com
	Model       string // default: gpt-4o-mini
	Temperature float64
	MaxTokens   int64
	Prompt      *Prompt
}

// OpenAI generates bodies through a chat completions endpoint.
type OpenAI struct {
	client openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates an OpenAI-compatible backend.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("compose: openai: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Prompt == nil {
		p, err := NewPrompt("")
		if err != nil {
			return nil, err
		}
		cfg.Prompt = p
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), cfg: cfg}, nil
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, title string) (string, error) {
	prompt, err := o.cfg.Prompt.Render(title)
	if err != nil {
		return "", err
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(o.cfg.Temperature),
		MaxCompletionTokens: openai.Int(o.cfg.MaxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && transientStatus(apiErr.StatusCode) {
			return "", fmt.Errorf("%w: openai: %v", ErrTransient, err)
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: openai: %v", ErrTransient, err)
		}
		return "", fmt.Errorf("compose: openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmpty
	}
	return resp.Choices[0].Message.Content, nil
}
