package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SEARCH_DEFAULT_TOP_K", "")
	t.Setenv("SEARCH_MAX_TOP_K", "")
	t.Setenv("EXPLAIN_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPgvector, cfg.VectorIndex.Backend)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "llm", cfg.OpenAI.ExplainMode)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "Qdrant")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SEARCH_DEFAULT_TOP_K", "5")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("PG_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendQdrant, cfg.VectorIndex.Backend)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 5432, cfg.PostgreSQL.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Search:      SearchConfig{DefaultTopK: 10, MaxTopK: 100},
			VectorIndex: VectorIndexConfig{Backend: BackendPgvector},
			OpenAI:      OpenAIConfig{ExplainMode: "fast"},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.VectorIndex.Backend = "pinecone"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Search.DefaultTopK = 200
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Search.MaxTopK = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.OpenAI.ExplainMode = "magic"
	assert.Error(t, cfg.Validate())
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{DSN: "postgres://u@h/db"}}
	assert.Equal(t, "postgres://u@h/db", cfg.GetPostgreSQLDSN())

	cfg = &Config{PostgreSQL: PostgreSQLConfig{Host: "h", Port: 1, User: "u", Database: "d", SSLMode: "disable"}}
	assert.Equal(t, "host=h port=1 user=u password= dbname=d sslmode=disable", cfg.GetPostgreSQLDSN())
}
