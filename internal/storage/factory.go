package storage

import (
	"fmt"

	"companion-chat/backend/pkg/config"
	"companion-chat/backend/pkg/logger"
)

// NewFromConfig builds the backend named by cfg.Storage.Backend.
func NewFromConfig(cfg *config.Config, log *logger.Logger) (KV, error) {
	quota := cfg.Storage.QuotaBytes

	switch cfg.Storage.Backend {
	case "", "memory":
		log.Warn("Using in-memory profile storage; settings are lost on restart")
		return NewMemoryKV(quota), nil
	case "redis":
		return NewRedisKV(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Storage.KeyPrefix,
			Quota:    quota,
		}), nil
	case "postgres":
		db, err := OpenPostgres(cfg, log)
		if err != nil {
			return nil, err
		}
		return NewSQLKV(db, quota)
	case "sqlite":
		db, err := OpenSQLite(cfg.Database.SQLitePath, cfg)
		if err != nil {
			return nil, err
		}
		return NewSQLKV(db, quota)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
