package storage

import (
	"context"
	"fmt"

	"giveabot/config"
	"giveabot/service"
)

// New creates the state store selected by the storage configuration
func New(ctx context.Context, cfg config.StorageConfig) (service.Store, func(), error) {
	switch cfg.Backend {
	case config.StorageBackendFile:
		store := NewFileStore(cfg.Path)
		return store, func() {}, nil
	case config.StorageBackendPostgres:
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StorageBackendRedis:
		store := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
