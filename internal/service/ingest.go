package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"rental-assistant/internal/model"
)

// IngestReport summarizes one ingestion run
type IngestReport struct {
	Total    int      `json:"total"`
	Embedded int      `json:"embedded"`
	Skipped  int      `json:"skipped"`
	Upserted int      `json:"upserted"`
	Errors   []string `json:"errors,omitempty"`
}

// IngestService enriches source listings, embeds them and upserts them into the index
type IngestService struct {
	enricher *ListingEnricher
	embedder Embedder
	index    VectorIndex
	logger   *zap.Logger
}

// NewIngestService creates a new ingestion service
func NewIngestService(enricher *ListingEnricher, embedder Embedder, index VectorIndex, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{enricher: enricher, embedder: embedder, index: index, logger: logger}
}

// LoadSourceListings decodes the listing source file (a JSON array)
func LoadSourceListings(r io.Reader) ([]model.SourceListing, error) {
	var listings []model.SourceListing
	if err := json.NewDecoder(r).Decode(&listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

// Ingest processes listings one at a time. Enrichment failures degrade to
// empty fields; a listing whose embedding fails is skipped.
func (s *IngestService) Ingest(ctx context.Context, sources []model.SourceListing, language string) (*IngestReport, error) {
	report := &IngestReport{Total: len(sources)}
	batch := make([]model.IndexedListing, 0, len(sources))

	for i, src := range sources {
		text := EnrichmentText(src)

		fields, err := s.enricher.ExtractFields(ctx, text, language)
		if err != nil {
			s.logger.Warn("Field extraction failed", zap.String("url", src.URL), zap.Error(err))
		}
		summary, err := s.enricher.Summarize(ctx, text, language)
		if err != nil {
			s.logger.Warn("Summary failed", zap.String("url", src.URL), zap.Error(err))
		}

		vector, err := s.embedder.Embed(ctx, text)
		if err != nil || len(vector) == 0 {
			report.Skipped++
			msg := fmt.Sprintf("listing %d (%s): no embedding", i, src.URL)
			if err != nil {
				msg = fmt.Sprintf("listing %d (%s): %v", i, src.URL, err)
			}
			report.Errors = append(report.Errors, msg)
			s.logger.Warn("Skipping listing without embedding", zap.Int("index", i), zap.String("url", src.URL), zap.Error(err))
			continue
		}
		report.Embedded++

		listing := MergeListing(src, fields, summary)
		if listing.ID == "" {
			listing.ID = strconv.Itoa(len(batch) + 1)
		}
		batch = append(batch, model.IndexedListing{Listing: listing, Embedding: vector})
	}

	if len(batch) == 0 {
		return report, nil
	}

	upserted, err := s.index.Upsert(ctx, batch)
	report.Upserted = upserted
	if err != nil {
		return report, fmt.Errorf("failed to upsert %d listings: %w", len(batch), err)
	}

	s.logger.Info("Ingestion finished",
		zap.Int("total", report.Total),
		zap.Int("embedded", report.Embedded),
		zap.Int("skipped", report.Skipped),
		zap.Int("upserted", report.Upserted),
	)
	return report, nil
}

// EnrichmentText is the text sent to the model and embedded for a listing.
func EnrichmentText(src model.SourceListing) string {
	var b strings.Builder
	b.WriteString(src.Description)
	b.WriteString("\nPrice: ")
	b.WriteString(PriceString(src.Price))
	b.WriteString("\nFurnished: ")
	b.WriteString(triStateString(src.Furnished))
	if src.PetsAllowed != nil {
		b.WriteString("\nPets allowed: ")
		b.WriteString(triStateString(src.PetsAllowed))
	}
	return b.String()
}

// MergeListing prefers source values and falls back to extracted ones.
func MergeListing(src model.SourceListing, fields *model.ExtractedFields, summary string) model.Listing {
	if fields == nil {
		fields = &model.ExtractedFields{}
	}

	l := model.Listing{
		ID:          src.ID,
		URL:         src.URL,
		Title:       src.Title,
		District:    src.District,
		Price:       PriceString(src.Price),
		Furnished:   src.Furnished,
		PetsAllowed: src.PetsAllowed,
		Description: src.Description,
		Summary:     summary,
	}
	if l.ID == "" {
		l.ID = src.URL
	}
	if l.Title == "" && fields.Title != nil {
		l.Title = *fields.Title
	}
	if l.District == "" && fields.District != nil {
		l.District = *fields.District
	}
	if l.Price == "" {
		l.Price = PriceString(fields.Price)
	}
	if l.Furnished == nil {
		l.Furnished = fields.Furnished
	}
	if l.PetsAllowed == nil {
		l.PetsAllowed = fields.PetsAllowed
	}
	return l
}

// PriceString renders a source price (string or JSON number) as text.
func PriceString(v any) string {
	switch p := v.(type) {
	case nil:
		return ""
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return fmt.Sprint(p)
	}
}

func triStateString(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
