package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-assistant/internal/model"
)

func TestPrintIndex(t *testing.T) {
	var buf bytes.Buffer
	idx := &printIndex{w: &buf}

	n, err := idx.Upsert(context.Background(), []model.IndexedListing{
		{Listing: model.Listing{ID: "a", Title: "Loft"}, Embedding: []float32{1}},
		{Listing: model.Listing{ID: "b", Price: "€900"}, Embedding: []float32{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var l model.Listing
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &l))
	assert.Equal(t, "b", l.ID)
	assert.Equal(t, "€900", l.Price)

	results, err := idx.Query(context.Background(), nil, 10, model.CompiledFilter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
