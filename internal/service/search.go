package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rental-assistant/internal/metrics"
	"rental-assistant/internal/model"
)

// SearchService runs the hybrid retrieval pipeline: compile filter, compose
// query, embed, query the vector index, refine locally.
type SearchService struct {
	embedder    Embedder
	index       VectorIndex
	refiner     *Refiner
	defaultTopK int
	maxTopK     int
	logger      *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(
	embedder Embedder,
	index VectorIndex,
	defaultTopK, maxTopK int,
	logger *zap.Logger,
) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		embedder:    embedder,
		index:       index,
		refiner:     NewRefiner(logger),
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      logger,
	}
}

// statusCancelled labels searches stopped by a failing stream callback
const statusCancelled = "cancelled"

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// Search runs the pipeline once. On failure the returned outcome is still
// non-nil and carries the composed query with an empty result list.
func (s *SearchService) Search(ctx context.Context, filters model.SearchFilters, topK int) (*model.SearchOutcome, error) {
	return s.run(ctx, filters, topK, func(string, any) error { return nil })
}

// SearchStream performs a search and reports each pipeline stage to callback
func (s *SearchService) SearchStream(ctx context.Context, filters model.SearchFilters, topK int, callback SearchEventCallback) (*model.SearchOutcome, error) {
	return s.run(ctx, filters, topK, callback)
}

func (s *SearchService) run(ctx context.Context, filters model.SearchFilters, topK int, emit SearchEventCallback) (*model.SearchOutcome, error) {
	startTime := time.Now()
	topK = s.clampTopK(topK)

	filters.Pets = s.normalizeChoice(model.FieldPetsAllowed, filters.Pets)
	filters.Furnished = s.normalizeChoice(model.FieldFurnished, filters.Furnished)

	compiled := CompileSearchFilters(filters)
	query := ComposeQuery(filters)

	outcome := &model.SearchOutcome{
		Query:   query,
		Filter:  compiled.Map(),
		Results: []model.SearchResult{},
	}
	finish := func(status string) {
		outcome.Took = time.Since(startTime).Milliseconds()
		metrics.SearchesTotal.WithLabelValues(status).Inc()
		metrics.SearchDuration.Observe(time.Since(startTime).Seconds())
	}

	if err := emit("composing", map[string]any{"query": query, "filter": outcome.Filter}); err != nil {
		finish(statusCancelled)
		return outcome, err
	}

	if query == "" {
		finish(model.StatusNoQuery)
		s.logger.Info("Search skipped: no query", zap.String("status", model.StatusNoQuery))
		return outcome, ErrEmptyQuery
	}

	if err := emit("embedding", map[string]any{"status": "Embedding query..."}); err != nil {
		finish(statusCancelled)
		return outcome, err
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		finish("embedding_failed")
		s.logger.Error("Search failed: embedding", zap.String("query", query), zap.Error(err))
		return outcome, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if len(vector) == 0 {
		finish(model.StatusNoQuery)
		s.logger.Warn("Search skipped: empty embedding", zap.String("query", query))
		return outcome, ErrEmptyQuery
	}

	if err := emit("querying", map[string]any{"top_k": topK, "dimensions": len(vector)}); err != nil {
		finish(statusCancelled)
		return outcome, err
	}
	candidates, err := s.index.Query(ctx, vector, topK, compiled)
	if err != nil {
		finish("index_failed")
		s.logger.Error("Search failed: vector index", zap.String("query", query), zap.Error(err))
		return outcome, fmt.Errorf("%w: %w", ErrIndexQueryFailed, err)
	}
	outcome.Candidates = len(candidates)

	if err := emit("refining", map[string]any{"candidates": len(candidates)}); err != nil {
		finish(statusCancelled)
		return outcome, err
	}
	refined := s.refiner.Refine(candidates, filters.Price, filters.Additional)
	metrics.RefinedOutTotal.WithLabelValues("refine").Add(float64(len(candidates) - len(refined)))
	s.checkPrefilter(refined, compiled)
	outcome.Results = refined
	finish(model.StatusOK)

	s.logger.Info("Search completed",
		zap.String("query", query),
		zap.Any("filter", outcome.Filter),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(refined)),
		zap.Int64("took_ms", outcome.Took),
	)

	return outcome, nil
}

// checkPrefilter warns about candidates whose metadata contradicts the
// equality filter. Filtering is the index's job; nothing is dropped here.
// Candidates with empty metadata were already reported by the refiner.
func (s *SearchService) checkPrefilter(results []model.SearchResult, filter model.CompiledFilter) {
	if filter.IsEmpty() {
		return
	}
	for _, r := range results {
		if len(r.Metadata) == 0 || filter.Matches(r.Metadata) {
			continue
		}
		s.logger.Warn("Index returned candidate outside pre-filter",
			zap.String("id", r.Metadata.String(model.FieldID)),
			zap.Any("filter", filter.Map()),
		)
	}
}

// normalizeChoice falls back to any for out-of-range values
func (s *SearchService) normalizeChoice(field string, c model.Choice) model.Choice {
	n := model.NormalizeChoice(c)
	if n != c {
		s.logger.Warn("Filter value normalized to any",
			zap.String("field", field),
			zap.Int("value", int(c)),
			zap.Error(ErrInvalidFilterInput),
		)
	}
	return n
}

func (s *SearchService) clampTopK(topK int) int {
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if s.maxTopK > 0 && topK > s.maxTopK {
		topK = s.maxTopK
	}
	if topK <= 0 {
		topK = 1
	}
	return topK
}
