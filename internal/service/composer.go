package service

import (
	"strings"

	"rental-assistant/internal/model"
)

// ComposeQuery merges structured selections and the free-text wish into the
// sentence that gets embedded. Empty fragments are skipped.
func ComposeQuery(f model.SearchFilters) string {
	var parts []string

	if d := strings.TrimSpace(f.District); d != "" {
		parts = append(parts, "district: "+d)
	}
	switch model.NormalizeChoice(f.Pets) {
	case model.ChoiceYes:
		parts = append(parts, "pets allowed")
	case model.ChoiceNo:
		parts = append(parts, "no pets")
	}
	switch model.NormalizeChoice(f.Furnished) {
	case model.ChoiceYes:
		parts = append(parts, "furnished")
	case model.ChoiceNo:
		parts = append(parts, "not furnished")
	}
	if p := strings.TrimSpace(f.Price); p != "" {
		parts = append(parts, "price: "+p)
	}
	if a := strings.TrimSpace(f.Additional); a != "" {
		parts = append(parts, a)
	}

	return strings.Join(parts, " ")
}
