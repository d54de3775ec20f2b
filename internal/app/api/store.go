package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/persistence/kvstore"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
	platformpostgres "github.com/Apurer/go-gin-pet-finder/internal/platform/postgres"
)

// OpenStore opens the key-value backend selected by cfg.StoreDriver with every
// pet registry segment provisioned. A configured store that cannot be opened is
// an error; durable data never silently falls back to memory.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (kv.Backend, error) {
	segments := kvstore.Segments()
	switch cfg.StoreDriver {
	case StoreDriverMemory:
		logger.Warn("pet registry configured with in-memory store, data will not survive restart")
		return kv.NewMemory(segments...)
	case StoreDriverPostgres:
		db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		backend, err := kv.NewPostgres(ctx, db, segments...)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		logger.Info("pet registry configured with postgres")
		return backend, nil
	default:
		backend, err := kv.OpenSQLite(ctx, cfg.SQLitePath, segments...)
		if err != nil {
			return nil, err
		}
		logger.Info("pet registry configured with sqlite", slog.String("path", backend.Path()))
		return backend, nil
	}
}
