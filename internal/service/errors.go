package service

import "errors"

var (
	// ErrInvalidFilterInput marks a filter value that could not be normalized.
	// It is recovered locally and never returned from Search.
	ErrInvalidFilterInput = errors.New("invalid filter input")
	// ErrEmptyQuery is returned when the preferences compose to an empty query.
	ErrEmptyQuery = errors.New("no query")
	// ErrEmbeddingFailed wraps failures of the embedding provider.
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrIndexQueryFailed wraps failures of the vector index.
	ErrIndexQueryFailed = errors.New("vector index query failed")
	// ErrMetadataDecode marks a candidate whose serialized metadata is malformed.
	ErrMetadataDecode = errors.New("metadata decode failed")
	// ErrExplanationFailed marks a failed explanation; rendered inline.
	ErrExplanationFailed = errors.New("explanation failed")
	// ErrAINotEnabled is returned by the OpenAI client when no API key is configured.
	ErrAINotEnabled = errors.New("OpenAI API is not enabled (missing API key)")
)
