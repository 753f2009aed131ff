package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Go "), genai.Text("Channels")}}},
			{Content: nil},
		},
	}
	assert.Equal(t, "Go Channels", extractText(resp))
}

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(t.Context(), "", "gemini-1.5-flash")
	assert.Error(t, err)
}
