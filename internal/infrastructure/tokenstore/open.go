package tokenstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/core/ports"
	redisdb "github.com/budgettracker/budget-tracker/internal/infrastructure/db/redis"
	"github.com/budgettracker/budget-tracker/internal/pkg/config"
)

// Open builds the store selected by cfg.TokenStore. The returned close func
// is never nil.
func Open(ctx context.Context, cfg *config.ClientConfig, log zerolog.Logger) (ports.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return NewMemoryStore(""), noop, nil
	case config.TokenStoreRedis:
		client, err := redisdb.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("token store: %w", err)
		}
		log.Debug().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("using redis token store")
		return redisdb.NewTokenStore(client, ""), client.Close, nil
	case config.TokenStoreFile, "":
		log.Debug().Str("path", cfg.TokenFile).Msg("using file token store")
		return NewFileStore(cfg.TokenFile), noop, nil
	default:
		return nil, noop, fmt.Errorf("token store: unknown backend %q", cfg.TokenStore)
	}
}
