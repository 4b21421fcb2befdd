package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetrelay.io/fleetrelay/internal/pkg/metrics"
	"fleetrelay.io/fleetrelay/pkg/log"
	"fleetrelay.io/fleetrelay/pkg/options"
)

var _ Cache = (*Redis)(nil)

// Redis is the redis-backed Cache implementation.
type Redis struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	logger     log.Logger
}

// NewRedis creates a redis-backed cache from the given options. The
// connection is established lazily; use Ping to probe reachability.
func NewRedis(opts *options.RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.Database,
		DialTimeout: opts.DialTimeout,
	})

	return &Redis{
		client:     client,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
		logger:     log.WithName("cache"),
	}
}

// Ping probes the backend. Used by the readiness endpoint only; cache
// operations never require a reachable backend.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) key(k string) string {
	return c.prefix + "_" + k
}

func (c *Redis) Get(ctx context.Context, module, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheRequests.WithLabelValues(module, "miss").Inc()
		} else {
			metrics.CacheRequests.WithLabelValues(module, "error").Inc()
			c.logger.Warn("Cache read failed, treating as miss", "module", module, "key", key, "err", err)
		}
		return nil, false
	}

	metrics.CacheRequests.WithLabelValues(module, "hit").Inc()
	return val, true
}

func (c *Redis) Set(ctx context.Context, module, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "module", module, "key", key, "err", err)
	}
}

// RemoveModule sweeps every key under "{prefix}_{module}". Invalidation
// is deliberately coarse; precision would reintroduce races between
// concurrent writers.
func (c *Redis) RemoveModule(ctx context.Context, module string) {
	pattern := c.key(module) + "*"

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Cache invalidation scan failed", "module", module, "err", err)
		return
	}

	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Cache invalidation delete failed", "module", module, "err", err)
	}
}
