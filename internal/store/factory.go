package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"chordbook/internal/chordbook"
	"chordbook/internal/config"
)

// NewRecordStoreFromConfig creates a RecordStore based on the store config type.
// sealer is required when cfg.Encrypt is set and ignored otherwise.
func NewRecordStoreFromConfig(ctx context.Context, cfg config.StoreConfig, sealer Sealer) (chordbook.RecordStore, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem store requires dir to be set")
		}
		if !cfg.Encrypt {
			return NewFileSystemStore(cfg.Dir, nil)
		}
		if sealer == nil {
			return nil, fmt.Errorf("encrypted filesystem store requires unlocked keys")
		}
		return NewFileSystemStore(cfg.Dir, sealer)
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite store requires dir to be set")
		}
		if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.Dir, "chordbook.db"))
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis store requires redis_url to be set")
		}
		return OpenRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
