package factory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phakamani-backend/internal/llm/ollama"
)

func TestNewLLMProvider_None(t *testing.T) {
	for _, name := range []string{"", "none"} {
		p, closeFn, err := NewLLMProvider(t.Context(), Settings{Provider: name})
		require.NoError(t, err)
		assert.Nil(t, p)
		require.NotNil(t, closeFn)
		assert.NoError(t, closeFn())
	}
}

func TestNewLLMProvider_Unsupported(t *testing.T) {
	_, closeFn, err := NewLLMProvider(t.Context(), Settings{Provider: "llamacpp"})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestNewLLMProvider_OllamaModelPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "llama3:latest"}},
		})
	}))
	defer srv.Close()

	p, _, err := NewLLMProvider(t.Context(), Settings{
		Provider:      "ollama",
		Model:         "llama3",
		OllamaBaseURL: srv.URL,
		ProbeTimeout:  time.Second,
	})
	require.NoError(t, err)
	assert.IsType(t, &ollama.Provider{}, p)
}

func TestNewLLMProvider_OllamaModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{}})
	}))
	defer srv.Close()

	p, _, err := NewLLMProvider(t.Context(), Settings{
		Provider:      "ollama",
		Model:         "llama3",
		OllamaBaseURL: srv.URL,
	})
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestNewLLMProvider_GeminiWithoutKey(t *testing.T) {
	_, _, err := NewLLMProvider(t.Context(), Settings{Provider: "gemini", Model: "gemini-1.5-flash"})
	assert.Error(t, err)
}
