package pilot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/blogpilot/compose"
	"github.com/hazyhaar/blogpilot/sheet"
)

// NewGenerator builds the text generation backend named by cfg.Compose.
func NewGenerator(ctx context.Context, cfg *Config) (compose.Generator, error) {
	prompt, err := compose.NewPrompt(cfg.Compose.Prompt)
	if err != nil {
		return nil, err
	}
	c := cfg.Compose
	switch c.Backend {
	case "openai":
		gen, err := compose.NewOpenAI(compose.OpenAIConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   int64(c.MaxTokens),
			Prompt:      prompt,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	case "gemini":
		gen, err := compose.NewGemini(ctx, compose.GeminiConfig{
			APIKey:      c.APIKey,
			Model:       c.Model,
			Temperature: float32(c.Temperature),
			MaxTokens:   int32(c.MaxTokens),
			Prompt:      prompt,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
	return nil, fmt.Errorf("pilot: unknown compose backend %q", c.Backend)
}

// SheetOptions returns the workbook layout of cfg.
func SheetOptions(cfg *Config) sheet.Options {
	return sheet.Options{HeaderTitle: cfg.Sheet.HeaderTitle, HeaderBody: cfg.Sheet.HeaderBody}
}

// FillSheet generates a body for every row of the workbook at path that has
// a title and no body. The workbook is saved after each filled row so an
// interrupted run keeps its progress.
func FillSheet(ctx context.Context, gen compose.Generator, cfg *Config, path string, logger *slog.Logger) (*compose.Result, error) {
	book, err := sheet.Read(path, SheetOptions(cfg))
	if err != nil {
		return nil, err
	}

	pending := book.Pending()
	items := make([]compose.Item, 0, len(pending))
	for _, p := range pending {
		items = append(items, compose.Item{Row: p.Number, Title: p.Title})
	}
	logger.Info("pilot: filling workbook", "path", path, "pending", len(items))

	c := compose.New(gen, compose.Config{
		Attempts: cfg.Compose.Attempts,
		Backoff:  cfg.Compose.Backoff,
		Pause:    cfg.Compose.Pause,
		Logger:   logger,
	})
	return c.Fill(ctx, items, func(it compose.Item) error {
		if err := book.SetBody(it.Row, it.Body); err != nil {
			return err
		}
		return book.Save(path)
	})
}

// PostFromSheet reads row n of the workbook at path.
func PostFromSheet(cfg *Config, path string, n int) (Post, error) {
	book, err := sheet.Read(path, SheetOptions(cfg))
	if err != nil {
		return Post{}, err
	}
	p, err := book.Post(n)
	if err != nil {
		return Post{}, err
	}
	return Post{Title: p.Title, Body: p.Body, Row: p.Number}, nil
}
