package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rental-assistant/internal/model"
	"rental-assistant/internal/utils"
)

var extractPrompts = map[string]string{
	LanguageEnglish: `Extract these fields from the rental listing as JSON:
- title
- district (neighborhood or area)
- price
- pets_allowed (true/false if possible)
- furnished (true/false if possible)
If information is missing, use null. Output JSON only.
Listing:
`,
	LanguageItalian: `Estrai questi campi dall'annuncio immobiliare come JSON:
- title
- district (zona o quartiere)
- price
- pets_allowed (true/false se possibile)
- furnished (true/false se possibile)
Se mancano informazioni, usa null. Solo output JSON.
Annuncio:
`,
}

var summaryPrompts = map[string]string{
	LanguageEnglish: "Summarize this rental property for a search result (1-2 sentences, focus on main features and location):\n",
	LanguageItalian: "Riassumi questo annuncio immobiliare per un risultato di ricerca (1-2 frasi, indica i punti principali e la zona):\n",
}

// ListingEnricher recovers missing listing fields and a short summary from
// the free-text description using a chat model
type ListingEnricher struct {
	aiClient ChatCompleter
	logger   *zap.Logger
}

// NewListingEnricher creates a new enricher. aiClient may be nil.
func NewListingEnricher(aiClient ChatCompleter, logger *zap.Logger) *ListingEnricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingEnricher{aiClient: aiClient, logger: logger}
}

func (e *ListingEnricher) enabled() bool {
	return e.aiClient != nil && e.aiClient.IsEnabled()
}

// ExtractFields asks the model for structured fields. Without AI, or with an
// empty description, it returns empty fields.
func (e *ListingEnricher) ExtractFields(ctx context.Context, description, language string) (*model.ExtractedFields, error) {
	fields := &model.ExtractedFields{}
	if strings.TrimSpace(description) == "" {
		return fields, nil
	}
	if !e.enabled() {
		e.logger.Debug("AI is not enabled, skipping field extraction")
		return fields, nil
	}

	content, err := e.aiClient.Complete(ctx, CompletionRequest{
		System:    extractPrompts[normalizeLanguage(language)],
		User:      description,
		MaxTokens: 180,
		JSON:      true,
	})
	if err != nil {
		return fields, fmt.Errorf("field extraction: %w", err)
	}

	if err := utils.ParseAIJSON(content, fields); err != nil {
		e.logger.Warn("Failed to parse AI response", zap.String("content", content))
		return &model.ExtractedFields{}, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return fields, nil
}

// Summarize returns a 1-2 sentence summary, or "" without AI.
func (e *ListingEnricher) Summarize(ctx context.Context, description, language string) (string, error) {
	if strings.TrimSpace(description) == "" || !e.enabled() {
		return "", nil
	}
	summary, err := e.aiClient.Complete(ctx, CompletionRequest{
		System:      summaryPrompts[normalizeLanguage(language)],
		User:        description,
		Temperature: 0.3,
		MaxTokens:   70,
	})
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}
