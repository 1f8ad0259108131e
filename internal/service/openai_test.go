package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-assistant/internal/config"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIClient(&config.OpenAIConfig{
		APIKey:         "test-key",
		APIBase:        srv.URL + "/v1",
		ChatModel:      "gpt-test",
		EmbeddingModel: "embed-test",
		BatchSize:      2,
		Timeout:        5,
		Enabled:        true,
	}, nil)
}

func TestOpenAIClient_CreateEmbeddings(t *testing.T) {
	var calls int
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		calls++

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, 0, len(req.Input))
		// Reverse order to check the client sorts by index.
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 0.5},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "embed-test",
			"usage":  map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	})

	vectors, err := client.CreateEmbeddings(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0.5}, vectors[0])
	assert.Equal(t, []float32{2, 0.5}, vectors[1])
	assert.Equal(t, []float32{3, 0.5}, vectors[2])

	v, err := client.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, 2, calls)
}

func TestOpenAIClient_Complete(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "  {\"district\": \"Isola\"}\n"},
				"finish_reason": "stop",
			}},
		})
	})

	got, err := client.Complete(context.Background(), CompletionRequest{System: "s", User: "u", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"district": "Isola"}`, got)
}

func TestOpenAIClient_APIError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	})

	_, err := client.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "Rate limit reached")
}

func TestOpenAIClient_Disabled(t *testing.T) {
	client := NewOpenAIClient(&config.OpenAIConfig{}, nil)
	assert.False(t, client.IsEnabled())

	_, err := client.Embed(context.Background(), "hello")
	assert.True(t, errors.Is(err, ErrAINotEnabled))

	_, err = client.Complete(context.Background(), CompletionRequest{User: "hi"})
	assert.True(t, errors.Is(err, ErrAINotEnabled))
}
