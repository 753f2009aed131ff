package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"phakamani-backend/internal/llm"
)

// ApologyReply replaces a reply the model failed to produce.
const ApologyReply = "I couldn't generate a response (LLM error)."

const replyPromptTemplate = "You are Phakamani's highly capable AI assistant. Provide clear, well-structured responses.\n\n" +
	"Guidelines:\n" +
	"- Use bullet points (•) for lists\n" +
	"- Use numbered lists (1., 2., 3.) for steps\n" +
	"- Use paragraphs for explanations\n" +
	"- Be concise but thorough\n" +
	"- Start directly with the answer\n\n" +
	"User: %s\n\nAssistant:"

const titlePromptTemplate = "Summarize into a short 1-3 word topic (no prefix, no punctuation): %s\nTitle:"

var errEmptyCompletion = errors.New("model returned an empty completion")

// Assistant produces reply text and short chat titles. The variant is chosen
// once at startup: model backed when a provider is available, echo otherwise.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
	Title(ctx context.Context, message string) (string, error)
}

// NewAssistant returns the model-backed assistant, or the echo assistant when
// provider is nil. slots bounds concurrent model calls.
func NewAssistant(provider llm.Provider, timeout time.Duration, slots int) Assistant {
	if provider == nil {
		return echoAssistant{}
	}
	if slots < 1 {
		slots = 1
	}

	// Token bucket for concurrent model calls
	rateChan := make(chan struct{}, slots)
	for i := 0; i < slots; i++ {
		rateChan <- struct{}{}
	}

	return &modelAssistant{
		provider: provider,
		timeout:  timeout,
		rateChan: rateChan,
	}
}

// IsModelBacked reports whether a is backed by a generation provider.
func IsModelBacked(a Assistant) bool {
	_, ok := a.(*modelAssistant)
	return ok
}

type modelAssistant struct {
	provider llm.Provider
	timeout  time.Duration
	rateChan chan struct{}
}

func (a *modelAssistant) Reply(ctx context.Context, message string) (string, error) {
	text, err := a.generate(ctx, fmt.Sprintf(replyPromptTemplate, message),
		llm.WithMaxTokens(500),
		llm.WithTemperature(0.7),
		llm.WithTopP(0.9),
	)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

func (a *modelAssistant) Title(ctx context.Context, message string) (string, error) {
	text, err := a.generate(ctx, fmt.Sprintf(titlePromptTemplate, message), llm.WithMaxTokens(8))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (a *modelAssistant) generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := a.acquireRate(ctx); err != nil {
		return "", err
	}
	defer a.releaseRate()

	return a.provider.Generate(ctx, prompt, opts...)
}

// acquireRate blocks until a model slot is available
func (a *modelAssistant) acquireRate(ctx context.Context) error {
	select {
	case <-a.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *modelAssistant) releaseRate() {
	a.rateChan <- struct{}{}
}

// echoAssistant stands in when no model is loaded.
type echoAssistant struct{}

func (echoAssistant) Reply(_ context.Context, message string) (string, error) {
	return fmt.Sprintf("Echo: %s (LLM not loaded)", message), nil
}

func (echoAssistant) Title(_ context.Context, message string) (string, error) {
	return firstWords(message, 2), nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
