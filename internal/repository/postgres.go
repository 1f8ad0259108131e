package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rental-assistant/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// ErrUnknownField is returned when a filter references a column the listings table lacks
var ErrUnknownField = errors.New("unknown filter field")

// filterColumns maps metadata keys to listings columns usable in a pre-filter
var filterColumns = map[string]string{
	model.FieldID:          "id",
	model.FieldURL:         "url",
	model.FieldTitle:       "title",
	model.FieldDistrict:    "district",
	model.FieldPrice:       "price",
	model.FieldFurnished:   "furnished",
	model.FieldPetsAllowed: "pets_allowed",
}

// PostgresRepository stores listings with their embeddings in a pgvector
// column and records search logs
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryWithDB wraps an existing connection
func NewPostgresRepositoryWithDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the pgvector extension and the tables if missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context, dimensions int) error {
	for _, stmt := range schemaStatements(dimensions) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS listings (
			id           TEXT PRIMARY KEY,
			url          TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			district     TEXT NOT NULL DEFAULT '',
			price        TEXT NOT NULL DEFAULT '',
			furnished    BOOLEAN,
			pets_allowed BOOLEAN,
			metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding    vector(%d),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS listings_embedding_idx ON listings USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS listings_district_idx ON listings (district)`,
		`
		CREATE TABLE IF NOT EXISTS search_logs (
			search_id            TEXT PRIMARY KEY,
			session_id           TEXT NOT NULL DEFAULT '',
			query                TEXT NOT NULL DEFAULT '',
			filter               JSONB NOT NULL DEFAULT '{}'::jsonb,
			status               TEXT NOT NULL,
			error                TEXT NOT NULL DEFAULT '',
			result_count         INT NOT NULL DEFAULT 0,
			candidate_count      INT NOT NULL DEFAULT 0,
			returned_listing_ids TEXT[],
			response_time_ms     BIGINT NOT NULL DEFAULT 0,
			clicked_listing_id   TEXT,
			action               TEXT,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// buildFilterClause turns a compiled equality filter into SQL conditions
// starting at placeholder $argIndex.
func buildFilterClause(filter model.CompiledFilter, argIndex int) ([]string, []interface{}, int, error) {
	var whereClauses []string
	var args []interface{}

	for _, cond := range filter.Conditions() {
		column, ok := filterColumns[cond.Field]
		if !ok {
			return nil, nil, argIndex, fmt.Errorf("%w: %s", ErrUnknownField, cond.Field)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, cond.Value)
		argIndex++
	}

	return whereClauses, args, argIndex, nil
}

// buildQuerySQL assembles the nearest-neighbour query. The vector is $1.
func buildQuerySQL(filter model.CompiledFilter, topK int) (string, []interface{}, error) {
	whereClauses := []string{"embedding IS NOT NULL"}

	conds, args, argIndex, err := buildFilterClause(filter, 2)
	if err != nil {
		return "", nil, err
	}
	whereClauses = append(whereClauses, conds...)

	query := fmt.Sprintf(`
		SELECT metadata, 1 - (embedding <=> $1) AS score
		FROM listings
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, strings.Join(whereClauses, " AND "), argIndex)
	args = append(args, topK)

	return query, args, nil
}

type scoredRow struct {
	Metadata model.Metadata `db:"metadata"`
	Score    float64        `db:"score"`
}

// Query returns the topK listings closest to vector by cosine distance
// that satisfy every equality in filter
func (r *PostgresRepository) Query(ctx context.Context, vector []float32, topK int, filter model.CompiledFilter) ([]model.SearchResult, error) {
	query, args, err := buildQuerySQL(filter, topK)
	if err != nil {
		return nil, err
	}
	args = append([]interface{}{pgvector.NewVector(vector)}, args...)

	var rows []scoredRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	results := make([]model.SearchResult, 0, len(rows))
	for _, row := range rows {
		md := row.Metadata
		if md == nil {
			md = model.Metadata{}
		}
		results = append(results, model.SearchResult{Score: row.Score, Metadata: md})
	}
	return results, nil
}

const upsertListingSQL = `
	INSERT INTO listings (id, url, title, district, price, furnished, pets_allowed, metadata, embedding, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	ON CONFLICT (id) DO UPDATE SET
		url = EXCLUDED.url,
		title = EXCLUDED.title,
		district = EXCLUDED.district,
		price = EXCLUDED.price,
		furnished = EXCLUDED.furnished,
		pets_allowed = EXCLUDED.pets_allowed,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding,
		updated_at = NOW()
`

// execer is the part of *sqlx.Tx used by the row upsert loop
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// BatchUpsert writes listings in one transaction. Each row runs inside its
// own savepoint, so rows that fail are reported and skipped while the rest
// still commit.
func (r *PostgresRepository) BatchUpsert(ctx context.Context, items []model.IndexedListing) (int, []string) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to start transaction: %v", err)}
	}
	defer tx.Rollback()

	success, errors := upsertRows(ctx, tx, items)

	if err := tx.Commit(); err != nil {
		errors = append(errors, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errors
	}

	return success, errors
}

func upsertRows(ctx context.Context, tx execer, items []model.IndexedListing) (int, []string) {
	success := 0
	var errors []string

	for _, item := range items {
		l := item.Listing
		if l.ID == "" {
			errors = append(errors, "listing without id")
			continue
		}
		if _, err := tx.ExecContext(ctx, "SAVEPOINT listing_row"); err != nil {
			errors = append(errors, fmt.Sprintf("listing %s: %v", l.ID, err))
			return success, errors
		}
		_, err := tx.ExecContext(ctx, upsertListingSQL,
			l.ID, l.URL, l.Title, l.District, l.Price,
			nullBool(l.Furnished), nullBool(l.PetsAllowed),
			l.Metadata(), pgvector.NewVector(item.Embedding),
		)
		if err != nil {
			errors = append(errors, fmt.Sprintf("listing %s: %v", l.ID, err))
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT listing_row"); rbErr != nil {
				errors = append(errors, fmt.Sprintf("failed to roll back listing %s: %v", l.ID, rbErr))
				return success, errors
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT listing_row"); err != nil {
			errors = append(errors, fmt.Sprintf("listing %s: %v", l.ID, err))
			return success, errors
		}
		success++
	}

	return success, errors
}

// Upsert implements the index write path used by ingestion
func (r *PostgresRepository) Upsert(ctx context.Context, listings []model.IndexedListing) (int, error) {
	n, errs := r.BatchUpsert(ctx, listings)
	if len(errs) > 0 {
		return n, fmt.Errorf("%d of %d listings failed: %s", len(errs), len(listings), strings.Join(errs, "; "))
	}
	return n, nil
}

// GetListingByID retrieves a single listing. A missing listing is (nil, nil).
func (r *PostgresRepository) GetListingByID(ctx context.Context, id string) (*model.Listing, error) {
	var md model.Metadata
	err := r.db.GetContext(ctx, &md, `SELECT metadata FROM listings WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	listing := md.Listing()
	if listing.ID == "" {
		listing.ID = id
	}
	return &listing, nil
}

// LogSearch records a search and its outcome
func (r *PostgresRepository) LogSearch(ctx context.Context, entry model.SearchLog) error {
	filter, err := json.Marshal(entry.Filter)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}

	logQuery := `
		INSERT INTO search_logs (search_id, session_id, query, filter, status, error,
			result_count, candidate_count, returned_listing_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, logQuery,
		entry.SearchID, entry.SessionID, entry.Query, filter, entry.Status, entry.Error,
		entry.ResultCount, entry.CandidateCount, pq.Array(entry.ListingIDs), entry.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback logs user feedback/action
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID, listingID, action string) error {
	query := `
		UPDATE search_logs
		SET clicked_listing_id = $2, action = $3
		WHERE search_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, searchID, listingID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
