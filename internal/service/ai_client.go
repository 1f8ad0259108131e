package service

import (
	"context"

	"rental-assistant/internal/model"
)

// Embedder maps text to a fixed-length vector
type Embedder interface {
	// Embed returns the embedding of text. Empty text yields an empty vector
	// without calling the provider.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds many texts at once (used by ingestion)
type BatchEmbedder interface {
	Embedder
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatCompleter runs a single system+user prompt against a chat model
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// CompletionRequest is a provider-neutral chat request
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSON        bool // ask for a JSON object response
}

// VectorIndex ranks listings by similarity to a query vector
type VectorIndex interface {
	// Query returns at most topK candidates in descending score order that
	// satisfy every equality in filter. No match is an empty slice, not an error.
	Query(ctx context.Context, vector []float32, topK int, filter model.CompiledFilter) ([]model.SearchResult, error)
	// Upsert stores listings with their vectors; used by ingestion only.
	Upsert(ctx context.Context, listings []model.IndexedListing) (int, error)
}

// Ensure OpenAIClient implements the AI interfaces
var (
	_ BatchEmbedder = (*OpenAIClient)(nil)
	_ ChatCompleter = (*OpenAIClient)(nil)
)
