package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingFields struct {
	Title       *string `json:"title"`
	District    *string `json:"district"`
	Price       any     `json:"price"`
	PetsAllowed *bool   `json:"pets_allowed"`
	Furnished   *bool   `json:"furnished"`
}

func TestParseAIJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]interface{}
	}{
		{
			name:  "pure JSON",
			input: `{"district": "Navigli", "price": 1200}`,
			want:  map[string]interface{}{"district": "Navigli", "price": float64(1200)},
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"district\": \"Isola\"}\n```",
			want:  map[string]interface{}{"district": "Isola"},
		},
		{
			name:  "fence without tag",
			input: "```\n{\"district\": \"Isola\"}\n```",
			want:  map[string]interface{}{"district": "Isola"},
		},
		{
			name:  "surrounding prose",
			input: `Here is the result: {"title": "Loft {big}", "furnished": true} hope it helps`,
			want:  map[string]interface{}{"title": "Loft {big}", "furnished": true},
		},
		{
			name:  "trailing comma",
			input: `{"district": "Brera", "price": "€900",}`,
			want:  map[string]interface{}{"district": "Brera", "price": "€900"},
		},
		{
			name:  "unquoted keys",
			input: `{district: "Brera", pets_allowed: false}`,
			want:  map[string]interface{}{"district": "Brera", "pets_allowed": false},
		},
		{
			name:  "single quotes",
			input: `{'title': 'Bilocale', 'district': 'Porta Romana'}`,
			want:  map[string]interface{}{"title": "Bilocale", "district": "Porta Romana"},
		},
		{
			name:  "python literals",
			input: `{"pets_allowed": True, "furnished": None, "title": "Loft"}`,
			want:  map[string]interface{}{"pets_allowed": true, "furnished": nil, "title": "Loft"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			require.NoError(t, ParseAIJSON(tt.input, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAIJSON_Errors(t *testing.T) {
	var got map[string]interface{}
	assert.Error(t, ParseAIJSON("", &got))
	assert.Error(t, ParseAIJSON("   ", &got))
	assert.Error(t, ParseAIJSON("not json at all", &got))
}

func TestParseAIJSON_ListingFields(t *testing.T) {
	var fields listingFields
	input := "Sure!\n```json\n{\"title\": null, \"district\": \"Città Studi\", \"price\": \"1.100 €\", \"pets_allowed\": False, \"furnished\": true}\n```"

	require.NoError(t, ParseAIJSON(input, &fields))
	assert.Nil(t, fields.Title)
	require.NotNil(t, fields.District)
	assert.Equal(t, "Città Studi", *fields.District)
	assert.Equal(t, "1.100 €", fields.Price)
	require.NotNil(t, fields.PetsAllowed)
	assert.False(t, *fields.PetsAllowed)
	assert.True(t, *fields.Furnished)
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 2}}`, extractBalanced(`{"a": {"b": 2}} tail`, '{', '}'))
	assert.Equal(t, `{"t": "x}"}`, extractBalanced(`{"t": "x}"}`, '{', '}'))
	assert.Equal(t, "", extractBalanced(`{"open": 1`, '{', '}'))
}

func TestFixSingleQuotes(t *testing.T) {
	assert.Equal(t, `{"a": "it's"}`, fixSingleQuotes(`{"a": "it's"}`))
	assert.Equal(t, `{"a": "b"}`, fixSingleQuotes(`{'a': 'b'}`))
}
