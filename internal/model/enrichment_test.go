package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedFields_KeepsFieldsAroundBadValues(t *testing.T) {
	var f ExtractedFields
	err := json.Unmarshal([]byte(`{"title":"Sunny flat","district":"Monti","price":1200,"pets_allowed":"unknown","furnished":"yes"}`), &f)
	require.NoError(t, err)

	require.NotNil(t, f.Title)
	assert.Equal(t, "Sunny flat", *f.Title)
	require.NotNil(t, f.District)
	assert.Equal(t, "Monti", *f.District)
	assert.Equal(t, float64(1200), f.Price)
	assert.Nil(t, f.PetsAllowed)
	require.NotNil(t, f.Furnished)
	assert.True(t, *f.Furnished)
}

func TestExtractedFields_NonStringText(t *testing.T) {
	var f ExtractedFields
	require.NoError(t, json.Unmarshal([]byte(`{"title":{"x":1},"district":"  ","price":null}`), &f))
	assert.Nil(t, f.Title)
	assert.Nil(t, f.District)
	assert.Nil(t, f.Price)
}

func TestSourceListing_TriStateLabels(t *testing.T) {
	var listings []SourceListing
	err := json.Unmarshal([]byte(`[
		{"url":"u1","title":"A","price":"1000","furnished":"yes","pets_allowed":"no"},
		{"url":"u2","title":"B","price":900,"furnished":true},
		{"url":"u3","title":"C","pets_allowed":"unknown"}
	]`), &listings)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	assert.Equal(t, "u1", listings[0].URL)
	assert.Equal(t, "1000", listings[0].Price)
	assert.Equal(t, boolPtr(true), listings[0].Furnished)
	assert.Equal(t, boolPtr(false), listings[0].PetsAllowed)

	assert.Equal(t, float64(900), listings[1].Price)
	assert.Equal(t, boolPtr(true), listings[1].Furnished)
	assert.Nil(t, listings[1].PetsAllowed)

	assert.Equal(t, "C", listings[2].Title)
	assert.Nil(t, listings[2].Furnished)
	assert.Nil(t, listings[2].PetsAllowed)
}
