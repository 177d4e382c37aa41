package compose

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string  // default: gemini-2.5-flash
	Temperature float32 // default: 0.7
	MaxTokens   int32   // default: 2000
	Prompt      *Prompt
}

// Gemini generates bodies with the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("compose: gemini: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
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

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("compose: gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, title string) (string, error) {
	prompt, err := g.cfg.Prompt.Render(title)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return "", classifyGemini(err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Model is a model offered by the backend.
type Model struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Actions     []string `json:"actions,omitempty"`
}

// Models lists the models available to the API key.
func (g *Gemini) Models(ctx context.Context) ([]Model, error) {
	var out []Model
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return out, fmt.Errorf("compose: list models: %w", classifyGemini(err))
		}
		out = append(out, Model{Name: m.Name, DisplayName: m.DisplayName, Actions: m.SupportedActions})
	}
	return out, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && transientStatus(apiErr.Code) {
		return fmt.Errorf("%w: gemini: %v", ErrTransient, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && transientStatus(apiErrPtr.Code) {
		return fmt.Errorf("%w: gemini: %v", ErrTransient, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini: %v", ErrTransient, err)
	}
	return fmt.Errorf("compose: gemini: %w", err)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
