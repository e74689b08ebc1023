package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fintrack/internal/importer"
	"fintrack/internal/storage"
	"fintrack/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedCSV != "" {
		if err := f.seedIfEmpty(ctx, repo, config.SeedCSV); err != nil {
			repo.Close()
			return nil, err
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

// seedIfEmpty imports a history file into a fresh database. A database that
// already holds snapshots is left untouched.
func (f *DefaultFactory) seedIfEmpty(ctx context.Context, repo *storage.SQLiteRepository, path string) error {
	existing, err := repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("check existing snapshots: %w", err)
	}
	if len(existing) > 0 {
		f.logger.Info("Database already populated, skipping seed", "snapshots", len(existing))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	records, err := importer.ParseHistory(string(data))
	if err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := repo.UpsertMany(ctx, records); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	f.logger.Info("Seeded database", "path", path, "snapshots", len(records))
	return nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	st, err := memory.NewFromFile(config.SeedCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed", config.SeedCSV)

	return &BackendResult{
		Store: st,
		Ready: func(context.Context) error { return nil },
	}, nil
}
