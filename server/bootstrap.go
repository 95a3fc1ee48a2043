package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/internal/config"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/jrsteele09/spares-console/storage/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisPingTimeout = 5 * time.Second

// NewStorageFactory builds the persisted-session backend named by STORAGE_BACKEND. The
// returned close func releases the backend's connections.
func NewStorageFactory(ctx context.Context, c config.Config) (storage.Factory, func() error, error) {
	noop := func() error { return nil }

	switch c.GetStorageBackend() {
	case config.StorageBackendMemory:
		log.Info().Msg("🔧 Storage: in-memory, sessions are lost on restart")
		return repofake.NewFactory(), noop, nil

	case config.StorageBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("[server NewStorageFactory] redis %s: %w", c.GetRedisAddr(), err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Int("db", c.GetRedisDB()).Msg("🔧 Storage: redis")
		return storage.RedisFactory(client, c.GetRedisPrefix()), client.Close, nil

	default:
		log.Info().Str("folder", c.GetDataFolder()).Bool("sealed", c.GetStorageKey() != "").Msg("🔧 Storage: files")
		return storage.FileFactory(c.GetDataFolder(), c.GetStorageKey()), noop, nil
	}
}

// LoadRouteTable reads ROUTES_FILE when set, otherwise returns the default routes.
func LoadRouteTable(c config.GuardConfig) (*guard.Table, error) {
	name := c.GetRoutesFile()
	if name == "" {
		return guard.NewTable(guard.DefaultRoutes()), nil
	}
	routes, err := guard.LoadRoutesFile(name)
	if err != nil {
		return nil, fmt.Errorf("[server LoadRouteTable] %w", err)
	}
	log.Info().Str("file", name).Int("routes", len(routes)).Msg("🔧 Routes loaded from manifest")
	return guard.NewTable(routes), nil
}
