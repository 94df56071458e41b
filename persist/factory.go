package persist

import (
	"fmt"
	"log/slog"

	"bilancio/config"
	"bilancio/storage"
	"bilancio/storage/memory"
	"bilancio/storage/sqlite"
)

// OpenStore builds the blob store selected by the configuration.
func OpenStore(cfg *config.Config, log *slog.Logger) (storage.BlobStore, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.StorageBackend {
	case config.SQLiteBackend:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		log.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	case config.MemoryBackend:
		store := memory.NewFromFile(cfg.SeedFile)
		log.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
