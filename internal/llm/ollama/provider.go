package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"phakamani-backend/internal/llm"
)

type Provider struct {
	BaseURL   string
	ModelName string
	client    *api.Client
}

var _ llm.Provider = &Provider{}

func NewProvider(baseURL, modelName string) (*Provider, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	return &Provider{
		BaseURL:   baseURL,
		ModelName: modelName,
		client:    api.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
	}, nil
}

// Ping checks that the server answers and has the configured model pulled.
func (p *Provider) Ping(ctx context.Context) error {
	list, err := p.client.List(ctx)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	for _, m := range list.Models {
		if m.Name == p.ModelName || m.Model == p.ModelName || m.Name == p.ModelName+":latest" {
			return nil
		}
	}
	return fmt.Errorf("model %q is not available on %s", p.ModelName, p.BaseURL)
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.Apply(opts...)

	stream := false
	req := &api.GenerateRequest{
		Model:  p.ModelName,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": options.Temperature,
			"top_p":       options.TopP,
		},
	}
	if options.MaxTokens > 0 {
		req.Options["num_predict"] = options.MaxTokens
	}

	var out strings.Builder
	err := p.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}
