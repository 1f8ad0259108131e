package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"rental-assistant/internal/metrics"
	"rental-assistant/internal/model"
)

// Explanation modes
const (
	ExplainModeLLM  = "llm"
	ExplainModeFast = "fast"
)

// Supported explanation languages
const (
	LanguageEnglish = "English"
	LanguageItalian = "Italiano"
)

var explainSystemPrompts = map[string]string{
	LanguageEnglish: "You are an assistant who explains in 1-2 sentences why this rental listing is a good match for the query below.",
	LanguageItalian: "Sei un assistente che spiega in 1-2 frasi perché questo annuncio immobiliare corrisponde alla richiesta dell'utente.",
}

var explainUserTemplates = map[string]string{
	LanguageEnglish: "Query: %s\nListing: %s",
	LanguageItalian: "Richiesta: %s\nAnnuncio: %s",
}

var keywordPrefixes = map[string]string{
	LanguageEnglish: "Matched keywords: ",
	LanguageItalian: "Parole chiave trovate: ",
}

// Explainer produces short human-readable reasons why a listing matched.
// It never returns an error: failures are rendered inline.
type Explainer struct {
	chat        ChatCompleter
	defaultMode string
	logger      *zap.Logger
}

// NewExplainer creates an explainer. chat may be nil, in which case only
// keyword explanations are available.
func NewExplainer(chat ChatCompleter, defaultMode string, logger *zap.Logger) *Explainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultMode == "" {
		defaultMode = ExplainModeLLM
	}
	return &Explainer{chat: chat, defaultMode: defaultMode, logger: logger}
}

// Explain justifies a single match. mode "" uses the configured default.
func (e *Explainer) Explain(ctx context.Context, query string, md model.Metadata, language, mode string) string {
	if mode == "" {
		mode = e.defaultMode
	}
	language = normalizeLanguage(language)

	if mode == ExplainModeLLM {
		text, err := e.explainWithLLM(ctx, query, md, language)
		if err != nil {
			metrics.ExplanationsTotal.WithLabelValues(ExplainModeLLM, "error").Inc()
			e.logger.Warn("LLM explanation failed", zap.String("id", md.String(model.FieldID)), zap.Error(err))
			return fmt.Sprintf("LLM explanation error: %v", err)
		}
		metrics.ExplanationsTotal.WithLabelValues(ExplainModeLLM, "ok").Inc()
		return text
	}

	metrics.ExplanationsTotal.WithLabelValues(ExplainModeFast, "ok").Inc()
	return ExplainKeywords(query, md, language)
}

func (e *Explainer) explainWithLLM(ctx context.Context, query string, md model.Metadata, language string) (string, error) {
	if e.chat == nil || !e.chat.IsEnabled() {
		return "", fmt.Errorf("%w: %w", ErrExplanationFailed, ErrAINotEnabled)
	}

	text, err := e.chat.Complete(ctx, CompletionRequest{
		System:      explainSystemPrompts[language],
		User:        fmt.Sprintf(explainUserTemplates[language], query, formatMetadata(md)),
		Temperature: 0.2,
		MaxTokens:   80,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExplanationFailed, err)
	}
	return text, nil
}

// ExplainKeywords lists the query words found in the listing's text fields.
func ExplainKeywords(query string, md model.Metadata, language string) string {
	language = normalizeLanguage(language)
	haystack := strings.ToLower(strings.Join([]string{
		md.String(model.FieldTitle),
		md.String(model.FieldDescription),
		md.String(model.FieldSummary),
		md.String(model.FieldDistrict),
		md.String(model.FieldPrice),
	}, " "))

	var matched []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(haystack, w) {
			matched = append(matched, w)
		}
	}

	list := "–"
	if len(matched) > 0 {
		list = strings.Join(matched, ", ")
	}
	return keywordPrefixes[language] + list
}

// ExplainQuery renders session filters as the query text handed to the explainer.
func ExplainQuery(f model.SearchFilters) string {
	return strings.Join(strings.Fields(strings.Join([]string{
		f.District,
		f.Furnished.String(),
		f.Pets.String(),
		f.Price,
		f.Additional,
	}, " ")), " ")
}

func normalizeLanguage(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "italiano", "italian", "it":
		return LanguageItalian
	default:
		return LanguageEnglish
	}
}

// formatMetadata renders metadata deterministically as "key: value" pairs.
func formatMetadata(md model.Metadata) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+md.String(k))
	}
	return strings.Join(parts, "; ")
}
