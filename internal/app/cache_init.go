package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/invalidation"
)

const redisPingTimeout = 2 * time.Second

// viewCache: выбранный кэш представлений и признак того, что он общий для всех инстансов.
type viewCache struct {
	cache  invalidation.ViewCache
	shared bool
	ping   func(ctx context.Context) error
	close  func() error
}

// initViewCache выбирает Redis, если он задан и отвечает, иначе локальный LRU.
func initViewCache(ctx context.Context, cfg Config, logger *log.Entry) (*viewCache, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.WithField("addr", cfg.RedisAddr).Info("view cache backed by redis")
			return &viewCache{
				cache:  invalidation.NewRedisViewCache(client, cfg.ViewCacheTTL, logger.WithField("cache", "redis")),
				shared: true,
				ping:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
				close:  client.Close,
			}, nil
		}
		_ = client.Close()
		logger.WithError(err).Warn("redis is unavailable, using local view cache")
	}

	local, err := invalidation.NewLocalViewCache(cfg.ViewCacheSize, cfg.ViewCacheTTL)
	if err != nil {
		return nil, err
	}
	return &viewCache{cache: local}, nil
}

func (c *viewCache) shutdown(logger *log.Entry) {
	if c == nil || c.close == nil {
		return
	}
	if err := c.close(); err != nil {
		logger.WithError(err).Warn("failed to close view cache")
	}
}
