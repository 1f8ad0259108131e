package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-assistant/internal/model"
)

func TestBuildQuerySQL_NoFilter(t *testing.T) {
	query, args, err := buildQuerySQL(model.CompiledFilter{}, 10)
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE embedding IS NOT NULL\n")
	assert.Contains(t, query, "ORDER BY embedding <=> $1")
	assert.Contains(t, query, "LIMIT $2")
	assert.Equal(t, []interface{}{10}, args)
}

func TestBuildQuerySQL_WithFilter(t *testing.T) {
	filter := model.NewCompiledFilter(
		model.Equality{Field: model.FieldDistrict, Value: "Brera"},
		model.Equality{Field: model.FieldPetsAllowed, Value: true},
		model.Equality{Field: model.FieldFurnished, Value: false},
	)

	query, args, err := buildQuerySQL(filter, 5)
	require.NoError(t, err)

	assert.Contains(t, query, "embedding IS NOT NULL AND district = $2 AND pets_allowed = $3 AND furnished = $4")
	assert.Contains(t, query, "LIMIT $5")
	assert.Equal(t, []interface{}{"Brera", true, false, 5}, args)
}

func TestBuildFilterClause_UnknownField(t *testing.T) {
	filter := model.NewCompiledFilter(model.Equality{Field: "bedrooms; DROP TABLE listings", Value: 2})

	_, _, _, err := buildFilterClause(filter, 1)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements(1536)
	require.NotEmpty(t, stmts)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])

	joined := strings.Join(stmts, "\n")
	assert.Contains(t, joined, "embedding    vector(1536)")
	assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS search_logs")
}

func TestNullBool(t *testing.T) {
	assert.False(t, nullBool(nil).Valid)

	yes := true
	nb := nullBool(&yes)
	assert.True(t, nb.Valid)
	assert.True(t, nb.Bool)
}

type recordingTx struct {
	statements []string
	failID     string
}

func (tx *recordingTx) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	if query == upsertListingSQL {
		tx.statements = append(tx.statements, "upsert "+args[0].(string))
		if args[0] == tx.failID {
			return nil, errors.New("value too long for type character varying")
		}
		return nil, nil
	}
	tx.statements = append(tx.statements, query)
	return nil, nil
}

func TestUpsertRows_SkipsFailedRow(t *testing.T) {
	tx := &recordingTx{failID: "bad"}
	items := []model.IndexedListing{
		{Listing: model.Listing{ID: "a"}, Embedding: []float32{1}},
		{Listing: model.Listing{ID: "bad"}, Embedding: []float32{1}},
		{Listing: model.Listing{}, Embedding: []float32{1}},
		{Listing: model.Listing{ID: "c"}, Embedding: []float32{1}},
	}

	n, errs := upsertRows(context.Background(), tx, items)
	assert.Equal(t, 2, n)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "listing bad")
	assert.Equal(t, "listing without id", errs[1])

	assert.Equal(t, []string{
		"SAVEPOINT listing_row", "upsert a", "RELEASE SAVEPOINT listing_row",
		"SAVEPOINT listing_row", "upsert bad", "ROLLBACK TO SAVEPOINT listing_row",
		"SAVEPOINT listing_row", "upsert c", "RELEASE SAVEPOINT listing_row",
	}, tx.statements)
}
