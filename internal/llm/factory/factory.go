package factory

import (
	"context"
	"fmt"
	"time"

	"phakamani-backend/internal/llm"
	"phakamani-backend/internal/llm/gemini"
	"phakamani-backend/internal/llm/ollama"
)

// Settings selects and configures a generation backend.
type Settings struct {
	Provider      string // "ollama", "gemini" or "none"
	Model         string
	OllamaBaseURL string
	GeminiAPIKey  string
	ProbeTimeout  time.Duration
}

// NewLLMProvider builds the configured provider and checks it is usable.
// Provider "none" (or empty) yields a nil provider and no error. The returned
// close function is never nil.
func NewLLMProvider(ctx context.Context, s Settings) (llm.Provider, func() error, error) {
	noop := func() error { return nil }

	switch s.Provider {
	case "", "none":
		return nil, noop, nil

	case "ollama":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		p, err := ollama.NewProvider(baseURL, s.Model)
		if err != nil {
			return nil, noop, err
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout(s))
		defer cancel()
		if err := p.Ping(probeCtx); err != nil {
			return nil, noop, fmt.Errorf("ollama model %q not available: %w", s.Model, err)
		}
		return p, noop, nil

	case "gemini":
		p, err := gemini.NewProvider(ctx, s.GeminiAPIKey, s.Model)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil

	default:
		return nil, noop, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

func probeTimeout(s Settings) time.Duration {
	if s.ProbeTimeout > 0 {
		return s.ProbeTimeout
	}
	return 5 * time.Second
}
