package service

import (
	"context"

	"rental-assistant/internal/model"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type stubIndex struct {
	results  []model.SearchResult
	err      error
	calls    int
	lastTopK int
	filter   model.CompiledFilter
	upserted []model.IndexedListing
}

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int, filter model.CompiledFilter) ([]model.SearchResult, error) {
	s.calls++
	s.lastTopK = topK
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubIndex) Upsert(_ context.Context, listings []model.IndexedListing) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.upserted = append(s.upserted, listings...)
	return len(listings), nil
}

type stubChat struct {
	enabled  bool
	reply    string
	replies  map[string]string // "json" answers JSON-mode requests
	err      error
	requests []CompletionRequest
}

func (s *stubChat) IsEnabled() bool { return s.enabled }

func (s *stubChat) Complete(_ context.Context, req CompletionRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if req.JSON {
		if r, ok := s.replies["json"]; ok {
			return r, nil
		}
	}
	return s.reply, nil
}

func listingResult(score float64, id, price, title, description string) model.SearchResult {
	return model.SearchResult{
		Score: score,
		Metadata: model.Metadata{
			model.FieldID:          id,
			model.FieldPrice:       price,
			model.FieldTitle:       title,
			model.FieldDescription: description,
		},
	}
}
