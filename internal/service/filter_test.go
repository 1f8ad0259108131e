package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rental-assistant/internal/model"
)

func TestCompileFilter(t *testing.T) {
	t.Run("empty when nothing constrained", func(t *testing.T) {
		f := CompileFilter("", model.ChoiceAny, model.ChoiceAny)
		assert.True(t, f.IsEmpty())
		assert.Empty(t, f.Map())
	})

	t.Run("all constraints in order", func(t *testing.T) {
		f := CompileFilter("Brera", model.ChoiceYes, model.ChoiceNo)
		assert.Equal(t, []model.Equality{
			{Field: model.FieldDistrict, Value: "Brera"},
			{Field: model.FieldPetsAllowed, Value: true},
			{Field: model.FieldFurnished, Value: false},
		}, f.Conditions())
	})

	t.Run("district is case sensitive", func(t *testing.T) {
		f := CompileFilter("brera", model.ChoiceAny, model.ChoiceAny)
		v, ok := f.Get(model.FieldDistrict)
		assert.True(t, ok)
		assert.Equal(t, "brera", v)
	})

	t.Run("out of range choice is unconstrained", func(t *testing.T) {
		f := CompileFilter("", model.Choice(42), model.ChoiceAny)
		assert.True(t, f.IsEmpty())
	})
}

func TestCompileSearchFilters(t *testing.T) {
	f := CompileSearchFilters(model.SearchFilters{District: "  Isola ", Furnished: model.ChoiceYes})
	assert.Equal(t, map[string]any{
		model.FieldDistrict:  "Isola",
		model.FieldFurnished: true,
	}, f.Map())
}
