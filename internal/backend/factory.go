// Package backend selects and constructs the storage backend from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/storage"
	"fintrack/internal/storage/jsonfile"
	"fintrack/internal/storage/sqlite"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Open builds the storage backend named by cfg.DataBackend. The returned
// cleanup func may be nil.
func Open(cfg *config.Config, logger *slog.Logger) (storage.Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.DataBackend {
	case "jsonfile":
		store := jsonfile.New(cfg.DataDir, logger)
		logger.Info("Initialized jsonfile backend", "data_dir", cfg.DataDir)
		return store, nil, nil

	case "sqlite":
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
