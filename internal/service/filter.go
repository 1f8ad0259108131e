package service

import (
	"strings"

	"rental-assistant/internal/model"
)

// CompileFilter converts structured selections into equality constraints for
// the vector index pre-filter. District matching is exact and case-sensitive.
func CompileFilter(district string, pets, furnished model.Choice) model.CompiledFilter {
	var conds []model.Equality

	if district != "" {
		conds = append(conds, model.Equality{Field: model.FieldDistrict, Value: district})
	}
	if v, ok := model.NormalizeChoice(pets).Bool(); ok {
		conds = append(conds, model.Equality{Field: model.FieldPetsAllowed, Value: v})
	}
	if v, ok := model.NormalizeChoice(furnished).Bool(); ok {
		conds = append(conds, model.Equality{Field: model.FieldFurnished, Value: v})
	}

	return model.NewCompiledFilter(conds...)
}

// CompileSearchFilters compiles the filter part of a full set of preferences.
func CompileSearchFilters(f model.SearchFilters) model.CompiledFilter {
	return CompileFilter(strings.TrimSpace(f.District), f.Pets, f.Furnished)
}
