package llm

import (
	"context"
)

// Option tunes a single Generate call.
type Option func(*Options)

type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithTopP(p float64) Option {
	return func(o *Options) {
		o.TopP = p
	}
}

// Apply folds opts over the defaults used when a caller sets nothing.
func Apply(opts ...Option) Options {
	options := Options{
		MaxTokens:   200,
		Temperature: 0.7,
		TopP:        0.9,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Provider is a text-generation backend: prompt in, completion out.
// Implementations must be safe for concurrent use.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}
