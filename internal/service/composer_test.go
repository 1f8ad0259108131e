package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rental-assistant/internal/model"
)

func TestComposeQuery(t *testing.T) {
	tests := []struct {
		name    string
		filters model.SearchFilters
		want    string
	}{
		{
			name: "all fragments in order",
			filters: model.SearchFilters{
				District:   "Navigli",
				Pets:       model.ChoiceYes,
				Furnished:  model.ChoiceNo,
				Price:      "max 1300",
				Additional: "balcony",
			},
			want: "district: Navigli pets allowed not furnished price: max 1300 balcony",
		},
		{
			name:    "no pets and furnished",
			filters: model.SearchFilters{Pets: model.ChoiceNo, Furnished: model.ChoiceYes},
			want:    "no pets furnished",
		},
		{
			name:    "only free text",
			filters: model.SearchFilters{Additional: "  quiet street  "},
			want:    "quiet street",
		},
		{
			name:    "nothing selected",
			filters: model.DefaultFilters(),
			want:    "",
		},
		{
			name:    "whitespace only",
			filters: model.SearchFilters{District: "  ", Price: " ", Additional: "\t"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeQuery(tt.filters))
		})
	}
}

func TestComposeQuery_IncludesEveryFragmentOnce(t *testing.T) {
	q := ComposeQuery(model.SearchFilters{
		District:   "Trastevere",
		Pets:       model.ChoiceYes,
		Furnished:  model.ChoiceNo,
		Price:      "1000-1400",
		Additional: "balcony",
	})

	for _, fragment := range []string{"district: Trastevere", "pets allowed", "not furnished", "price: 1000-1400", "balcony"} {
		assert.Equal(t, 1, strings.Count(q, fragment), fragment)
	}
	assert.NotContains(t, q, "  ")
}
