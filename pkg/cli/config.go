package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/repository"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string

	// Gemini
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string

	// Embedding cache
	bucket   string
	cacheDir string

	// Analytics
	bigqueryDataset string
	bigqueryTable   string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore (omit to keep conversations in memory)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// geminiFlags returns flags for the completion and embedding service
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Generative model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("PARLAPLATE_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("PARLAPLATE_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// cacheFlags returns flags for the embedding cache backend
func cacheFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for the embedding cache (omit to use a local directory)",
			Sources:     cli.EnvVars("PARLAPLATE_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "cache-dir",
			Usage:       "Local embedding cache directory",
			Value:       ".parlaplate/cache",
			Sources:     cli.EnvVars("PARLAPLATE_CACHE_DIR"),
			Destination: &cfg.cacheDir,
		},
	}
}

// analyticsFlags returns flags for the optional BigQuery order sink
func analyticsFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset for finalized orders (omit to disable)",
			Sources:     cli.EnvVars("PARLAPLATE_BIGQUERY_DATASET"),
			Destination: &cfg.bigqueryDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table for finalized orders",
			Value:       "orders",
			Sources:     cli.EnvVars("PARLAPLATE_BIGQUERY_TABLE"),
			Destination: &cfg.bigqueryTable,
		},
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
	)
}

// newRepository creates the conversation repository. Without a project the
// in-memory implementation is used and nothing survives the process.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return repository.NewMemory(), nil
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newStorage creates the embedding cache backend
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket != "" {
		store, err := adapter.NewStorage(ctx, cfg.bucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		return store, nil
	}
	return adapter.NewLocalStorage(cfg.cacheDir)
}

// newOrderSink creates the optional BigQuery order sink, or nil when disabled
func (cfg *config) newOrderSink(ctx context.Context) (adapter.OrderSink, error) {
	if cfg.bigqueryDataset == "" {
		return nil, nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required for the BigQuery sink")
	}

	sink, err := adapter.NewBigQuery(ctx, cfg.project,
		adapter.WithOrderTable(cfg.bigqueryDataset, cfg.bigqueryTable))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create order sink")
	}
	return sink, nil
}
