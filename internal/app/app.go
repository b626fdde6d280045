// Package app wires configuration into the repositories, storage and job pipeline
// shared by the binaries.
package app

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/leads-import-worker/internal/async"
	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	"github.com/joseph-ayodele/leads-import-worker/internal/ingest"
	"github.com/joseph-ayodele/leads-import-worker/internal/pipeline"
	repo "github.com/joseph-ayodele/leads-import-worker/internal/repository"
	"github.com/joseph-ayodele/leads-import-worker/internal/storage"
)

// App holds the long-lived dependencies of a worker process.
type App struct {
	Config *common.Config
	Logger *slog.Logger

	Driver *entsql.Driver
	Pool   *pgxpool.Pool
	Jobs   repo.ImportJobRepository
	Files  storage.Downloader
}

// DBConfig maps the env configuration onto the repository settings.
func DBConfig(cfg common.DatabaseConfig) repo.Config {
	return repo.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}
}

// OpenDB connects to the database and pings it.
func OpenDB(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*entsql.Driver, *pgxpool.Pool, error) {
	drv, pool, err := repo.Open(ctx, DBConfig(cfg.Database), logger)
	if err != nil {
		return nil, nil, common.WrapError(err, "open database")
	}
	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		repo.Close(drv, pool, logger)
		return nil, nil, err
	}
	return drv, pool, nil
}

// New opens the database and file storage. Callers must Close the result.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	drv, pool, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	files, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		repo.Close(drv, pool, logger)
		return nil, common.WrapError(err, "open storage")
	}

	var jobOpts []repo.ImportJobOption
	if cfg.Worker.LeaseTimeout > 0 {
		jobOpts = append(jobOpts, repo.WithLeaseColumn(cfg.Worker.LeaseColumn))
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Driver: drv,
		Pool:   pool,
		Jobs:   repo.NewImportJobRepository(drv, logger, jobOpts...),
		Files:  files,
	}, nil
}

// Processor builds the per-job pipeline.
func (a *App) Processor() *pipeline.Processor {
	w := a.Config.Worker
	ingestor := ingest.NewIngestor(repo.NewLeadWriter(a.Pool, a.Logger), a.Logger,
		ingest.WithBatchSize(w.BatchSize),
		ingest.WithBatchDelay(w.BatchDelay),
		ingest.WithSchemaValidation(w.ValidateBatches),
	)
	return pipeline.NewProcessor(a.Logger, a.Files, ingestor, a.Jobs, a.Config.Storage.Bucket)
}

// Scheduler builds the polling loop around Processor.
func (a *App) Scheduler(workerID string) *async.Scheduler {
	w := a.Config.Worker
	return async.NewScheduler(a.Jobs, a.Processor(), a.Logger,
		async.WithEnabled(w.Enabled),
		async.WithPollInterval(w.PollInterval),
		async.WithErrorBackoff(w.ErrorBackoff),
		async.WithJobTimeout(w.JobTimeout),
		async.WithLeaseTimeout(w.LeaseTimeout),
		async.WithWorkerID(workerID),
	)
}

func (a *App) Close() {
	if a.Files != nil {
		if err := a.Files.Close(); err != nil {
			a.Logger.Error("failed to close storage client", "error", err)
		}
	}
	repo.Close(a.Driver, a.Pool, a.Logger)
}
