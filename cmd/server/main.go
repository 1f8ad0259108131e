package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rental-assistant/internal/config"
	"rental-assistant/internal/handler"
	"rental-assistant/internal/logger"
	"rental-assistant/internal/metrics"
	"rental-assistant/internal/repository"
	"rental-assistant/internal/service"
	"rental-assistant/internal/session"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// vectorBackend is what the server needs from an index backend
type vectorBackend interface {
	service.VectorIndex
	handler.ListingStore
	Close() error
}

func main() {
	// Print version info
	log.Printf("Rental Assistant")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.NewLogger(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	if err := run(cfg, l); err != nil {
		l.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.Server.GinMode)
	metrics.RegisterSearchMetrics()

	index, searchLog, err := openBackend(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer index.Close()

	// Initialize OpenAI client
	openaiClient := service.NewOpenAIClient(&cfg.OpenAI, l)
	if cfg.OpenAI.Enabled {
		l.Info("OpenAI client initialized",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("chat_model", cfg.OpenAI.ChatModel),
			zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
			zap.String("explain_mode", cfg.OpenAI.ExplainMode),
		)
	} else {
		l.Warn("OpenAI is disabled: searches fail at the embedding step",
			zap.String("hint", "set OPENAI_API_KEY to enable embeddings"))
	}

	// Initialize services
	searchService := service.NewSearchService(openaiClient, index, cfg.Search.DefaultTopK, cfg.Search.MaxTopK, l)
	explainer := service.NewExplainer(openaiClient, cfg.OpenAI.ExplainMode, l)
	sessions := session.NewStore(cfg.Session.TTL)
	go sessions.Run(ctx, time.Minute)

	var logSink handler.SearchLogger
	if searchLog != nil {
		logSink = searchLog
	}

	router := setupRouter(routerDeps{
		search:         handler.NewSearchHandler(searchService, sessions, index, logSink, l),
		explain:        handler.NewExplainHandler(explainer, sessions),
		feedback:       handler.NewFeedbackHandler(logSink),
		listings:       handler.NewListingsHandler(index, cfg.VectorIndex.Dimensions),
		allowedOrigins: cfg.Server.AllowedOrigins,
		backend:        cfg.VectorIndex.Backend,
		logger:         l,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("Starting server", zap.String("addr", addr), zap.String("vector_index", cfg.VectorIndex.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	l.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	l.Info("Server stopped")
	return nil
}

// openBackend connects the configured vector index. Search logs need
// PostgreSQL; with the qdrant backend they are kept only when a DSN is set.
func openBackend(ctx context.Context, cfg *config.Config, l *zap.Logger) (vectorBackend, *repository.PostgresRepository, error) {
	switch cfg.VectorIndex.Backend {
	case config.BackendQdrant:
		index, err := repository.NewQdrantIndex(cfg.VectorIndex.QdrantAddr, cfg.VectorIndex.Collection)
		if err != nil {
			return nil, nil, err
		}
		if err := index.EnsureCollection(ctx, cfg.VectorIndex.Dimensions); err != nil {
			_ = index.Close()
			return nil, nil, err
		}
		l.Info("Connected to qdrant", zap.String("addr", cfg.VectorIndex.QdrantAddr), zap.String("collection", cfg.VectorIndex.Collection))

		if cfg.PostgreSQL.DSN == "" {
			l.Warn("No DATABASE_URL set: search logs and feedback are disabled")
			return index, nil, nil
		}
		repo, err := openPostgres(ctx, cfg)
		if err != nil {
			l.Warn("Search logs disabled", zap.Error(err))
			return index, nil, nil
		}
		return &qdrantWithLogs{QdrantIndex: index, repo: repo}, repo, nil

	default:
		repo, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		l.Info("Connected to PostgreSQL (pgvector)")
		return repo, repo, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*repository.PostgresRepository, error) {
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx, cfg.VectorIndex.Dimensions); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// qdrantWithLogs closes the log database together with the index
type qdrantWithLogs struct {
	*repository.QdrantIndex
	repo *repository.PostgresRepository
}

func (q *qdrantWithLogs) Close() error {
	return errors.Join(q.QdrantIndex.Close(), q.repo.Close())
}
