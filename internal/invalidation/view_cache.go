package invalidation

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// DefaultViewTTL ограничивает жизнь закешированного представления даже без сигнала сброса.
	DefaultViewTTL = 10 * time.Minute

	redisKeyPrefix   = "storefront:view:"
	defaultLocalSize = 512
)

// ViewCache хранит отрендеренные ответы витрины по ключу представления.
// Invalidate делает ViewCache одновременно и получателем сигналов сброса.
//
// Generation и SetIfCurrent закрывают гонку чтения со сбросом: номер берётся
// до построения ответа, и запись не состоится, если ключ успели сбросить.
type ViewCache interface {
	domain.Invalidator
	Get(ctx context.Context, key domain.ViewKey) ([]byte, bool)
	Set(ctx context.Context, key domain.ViewKey, payload []byte)
	Generation(key domain.ViewKey) uint64
	SetIfCurrent(ctx context.Context, key domain.ViewKey, payload []byte, gen uint64) bool
}

// redisCmdable: подмножество *redis.Client, которое использует кеш.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisViewCache: общий для всех инстансов кеш представлений.
// Номера сбросов локальны для процесса; чужие сбросы ограничены TTL.
type RedisViewCache struct {
	client redisCmdable
	ttl    time.Duration
	logger *log.Entry
	gens   generations
}

// NewRedisViewCache создаёт кеш поверх клиента go-redis.
func NewRedisViewCache(client redisCmdable, ttl time.Duration, logger *log.Entry) *RedisViewCache {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	if logger == nil {
		logger = log.WithField("component", "view-cache-redis")
	}
	return &RedisViewCache{client: client, ttl: ttl, logger: logger}
}

// Get возвращает сохранённый ответ; ошибки Redis трактуются как промах.
func (c *RedisViewCache) Get(ctx context.Context, key domain.ViewKey) ([]byte, bool) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+string(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("view cache read failed")
		}
		return nil, false
	}
	return payload, true
}

// Set сохраняет ответ с TTL.
func (c *RedisViewCache) Set(ctx context.Context, key domain.ViewKey, payload []byte) {
	if err := c.client.Set(ctx, redisKeyPrefix+string(key), payload, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("view cache write failed")
	}
}

// Generation возвращает номер сброса ключа в этом процессе.
func (c *RedisViewCache) Generation(key domain.ViewKey) uint64 {
	return c.gens.current(key)
}

// SetIfCurrent сохраняет ответ, если ключ не сбрасывался после снимка gen.
func (c *RedisViewCache) SetIfCurrent(ctx context.Context, key domain.ViewKey, payload []byte, gen uint64) bool {
	return c.gens.whenCurrent(key, gen, func() { c.Set(ctx, key, payload) })
}

// Invalidate удаляет ключи одной командой DEL.
func (c *RedisViewCache) Invalidate(ctx context.Context, keys ...domain.ViewKey) {
	keys = Dedupe(keys)
	if len(keys) == 0 {
		return
	}
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, redisKeyPrefix+string(key))
	}
	c.gens.bump(keys, func() {
		if err := c.client.Del(ctx, redisKeys...).Err(); err != nil {
			c.logger.WithError(err).WithField("keys", redisKeys).Warn("view cache purge failed")
		}
	})
}

type localEntry struct {
	payload   []byte
	expiresAt time.Time
}

// LocalViewCache: LRU-кеш одного процесса. В многоинстансной установке
// сбросы других инстансов приходят через RemoteApplier.
type LocalViewCache struct {
	entries *lru.Cache
	ttl     time.Duration
	now     func() time.Time
	gens    generations
}

// NewLocalViewCache создаёт LRU на size записей (по умолчанию 512).
func NewLocalViewCache(size int, ttl time.Duration) (*LocalViewCache, error) {
	if size <= 0 {
		size = defaultLocalSize
	}
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LocalViewCache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// Get возвращает ответ, если он есть и не истёк.
func (c *LocalViewCache) Get(_ context.Context, key domain.ViewKey) ([]byte, bool) {
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	entry := raw.(localEntry)
	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.payload, true
}

// Set сохраняет копию ответа.
func (c *LocalViewCache) Set(_ context.Context, key domain.ViewKey, payload []byte) {
	c.entries.Add(key, localEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: c.now().Add(c.ttl),
	})
}

func (c *LocalViewCache) Generation(key domain.ViewKey) uint64 {
	return c.gens.current(key)
}

func (c *LocalViewCache) SetIfCurrent(ctx context.Context, key domain.ViewKey, payload []byte, gen uint64) bool {
	return c.gens.whenCurrent(key, gen, func() { c.Set(ctx, key, payload) })
}

// Invalidate удаляет ключи из LRU.
func (c *LocalViewCache) Invalidate(_ context.Context, keys ...domain.ViewKey) {
	c.gens.bump(keys, func() {
		for _, key := range keys {
			c.entries.Remove(key)
		}
	})
}

// Len возвращает число записей, включая ещё не вытесненные истёкшие.
func (c *LocalViewCache) Len() int {
	return c.entries.Len()
}

var (
	_ ViewCache = (*RedisViewCache)(nil)
	_ ViewCache = (*LocalViewCache)(nil)
)
