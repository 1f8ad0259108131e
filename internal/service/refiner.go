package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rental-assistant/internal/model"
)

// Refiner applies the local second-pass filter to vector index candidates
type Refiner struct {
	logger *zap.Logger
}

// NewRefiner creates a refiner. A nil logger disables logging.
func NewRefiner(logger *zap.Logger) *Refiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{logger: logger}
}

// Refine drops candidates that fail the price expression or do not contain
// the free-text wish in their description or title. Kept candidates are
// returned unchanged and in their original order.
func (r *Refiner) Refine(results []model.SearchResult, priceExpr, additional string) []model.SearchResult {
	price := ParsePriceExpr(priceExpr)
	if price.Kind == PriceKindFallback {
		r.logger.Warn("price_expr_fallback: unrecognized price expression matches every listing",
			zap.String("price_expr", priceExpr))
	}
	wish := strings.ToLower(additional)

	refined := make([]model.SearchResult, 0, len(results))
	for _, res := range results {
		md := res.Metadata
		if md == nil && res.RawMetadata != "" {
			decoded, err := DecodeMetadata(res.RawMetadata)
			if err != nil {
				r.logger.Warn("Degrading candidate metadata to empty", zap.Error(err))
			}
			md = decoded
		}
		if md == nil {
			md = model.Metadata{}
		}

		if priceExpr != "" && !price.Matches(md.String(model.FieldPrice)) {
			continue
		}
		if additional != "" {
			haystack := strings.ToLower(md.String(model.FieldDescription) + " " + md.String(model.FieldTitle))
			if !strings.Contains(haystack, wish) {
				continue
			}
		}

		refined = append(refined, model.SearchResult{Score: res.Score, Metadata: md})
	}
	return refined
}

// Refine is a convenience wrapper around a non-logging Refiner.
func Refine(results []model.SearchResult, priceExpr, additional string) []model.SearchResult {
	return NewRefiner(nil).Refine(results, priceExpr, additional)
}

// DecodeMetadata parses serialized metadata. On failure it returns an empty
// mapping together with an ErrMetadataDecode error.
func DecodeMetadata(raw string) (model.Metadata, error) {
	var md model.Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}
	if md == nil {
		return model.Metadata{}, nil
	}
	return md, nil
}
