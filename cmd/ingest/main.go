package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"rental-assistant/internal/config"
	"rental-assistant/internal/logger"
	"rental-assistant/internal/model"
	"rental-assistant/internal/repository"
	"rental-assistant/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "ingest",
		Usage: "Enrich, embed and index rental listings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "listings",
				Usage:  "Ingest a JSON array of listings into the vector index",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the listings JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Prompt language for enrichment (English, Italiano)",
						Value: service.LanguageEnglish,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print enriched listings instead of writing them to the index",
					},
				},
			},
			{
				Name:   "schema",
				Usage:  "Create the pgvector tables or the qdrant collection",
				Action: schemaCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(cliCtx *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	l, err := logger.NewLogger(cfg.Logging.Env, cliCtx.String("log-level"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func ingestCommand(cliCtx *cli.Context) error {
	cfg, l, err := setup(cliCtx)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	f, err := os.Open(cliCtx.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open listings file: %w", err)
	}
	defer f.Close()

	sources, err := service.LoadSourceListings(f)
	if err != nil {
		return err
	}
	l.Info("Loaded listings", zap.Int("count", len(sources)), zap.String("file", cliCtx.String("file")))

	ctx := cliCtx.Context
	var index service.VectorIndex
	if cliCtx.Bool("dry-run") {
		index = &printIndex{w: os.Stdout}
	} else {
		idx, closeFn, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		index = idx
	}

	aiClient := service.NewOpenAIClient(&cfg.OpenAI, l)
	if !aiClient.IsEnabled() {
		return fmt.Errorf("ingestion needs embeddings: %w", service.ErrAINotEnabled)
	}

	ingest := service.NewIngestService(service.NewListingEnricher(aiClient, l), aiClient, index, l)
	report, err := ingest.Ingest(ctx, sources, cliCtx.String("language"))
	if report != nil {
		fmt.Fprintf(os.Stderr, "Processed %d listings: %d embedded, %d skipped, %d upserted\n",
			report.Total, report.Embedded, report.Skipped, report.Upserted)
		for _, msg := range report.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		}
	}
	return err
}

func schemaCommand(cliCtx *cli.Context) error {
	cfg, l, err := setup(cliCtx)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	_, closeFn, err := openIndex(cliCtx.Context, cfg)
	if err != nil {
		return err
	}
	closeFn()
	l.Info("Schema ready", zap.String("backend", cfg.VectorIndex.Backend), zap.Int("dimensions", cfg.VectorIndex.Dimensions))
	return nil
}

// openIndex connects the configured backend and makes sure its storage exists
func openIndex(ctx context.Context, cfg *config.Config) (service.VectorIndex, func(), error) {
	switch cfg.VectorIndex.Backend {
	case config.BackendQdrant:
		idx, err := repository.NewQdrantIndex(cfg.VectorIndex.QdrantAddr, cfg.VectorIndex.Collection)
		if err != nil {
			return nil, nil, err
		}
		if err := idx.EnsureCollection(ctx, cfg.VectorIndex.Dimensions); err != nil {
			_ = idx.Close()
			return nil, nil, err
		}
		return idx, func() { _ = idx.Close() }, nil
	default:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx, cfg.VectorIndex.Dimensions); err != nil {
			_ = repo.Close()
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}
}

// printIndex writes listings as JSON lines instead of indexing them
type printIndex struct {
	w io.Writer
}

func (p *printIndex) Query(context.Context, []float32, int, model.CompiledFilter) ([]model.SearchResult, error) {
	return []model.SearchResult{}, nil
}

func (p *printIndex) Upsert(_ context.Context, listings []model.IndexedListing) (int, error) {
	enc := json.NewEncoder(p.w)
	for i, item := range listings {
		if err := enc.Encode(item.Listing); err != nil {
			return i, err
		}
	}
	return len(listings), nil
}
