package jwks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/denali-js/go-jwt-middleware/core"
)

const defaultRedisKeyPrefix = "jwks:"

// RedisCache implements Cache with Redis as the backing store. It keeps the
// raw JWKS document under "<prefix><jwksURI>" with an expiry, so several
// instances share one fetch per TTL.
type RedisCache struct {
	client     redis.UniversalClient
	ttl        time.Duration
	prefix     string
	httpClient *http.Client
	logger     core.Logger
	group      singleflight.Group
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache) error

// WithRedisTTL sets how long a key set stays in Redis. Default: 15 minutes.
func WithRedisTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) error {
		if ttl <= 0 {
			return fmt.Errorf("redis TTL must be positive")
		}
		c.ttl = ttl
		return nil
	}
}

// WithRedisKeyPrefix sets the Redis key prefix. Default: "jwks:".
func WithRedisKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) error {
		c.prefix = prefix
		return nil
	}
}

// WithRedisHTTPClient sets the client used on cache misses.
func WithRedisHTTPClient(client *http.Client) RedisCacheOption {
	return func(c *RedisCache) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithRedisLogger reports Redis failures, which otherwise fall back to the
// network silently.
func WithRedisLogger(logger core.Logger) RedisCacheOption {
	return func(c *RedisCache) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewRedisCache creates a Redis-backed cache for JWKS. The connection is
// checked with PING.
func NewRedisCache(ctx context.Context, client redis.UniversalClient, opts ...RedisCacheOption) (*RedisCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	c := &RedisCache{
		client:     client,
		ttl:        defaultCacheTTL,
		prefix:     defaultRedisKeyPrefix,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return c, nil
}

// Get retrieves JWKS from Redis or fetches and stores it on a miss.
// Redis errors degrade to a network fetch.
func (c *RedisCache) Get(ctx context.Context, jwksURI string) (jwk.Set, error) {
	key := c.prefix + jwksURI

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		set, parseErr := jwk.Parse(cached)
		if parseErr == nil {
			return set, nil
		}
		c.warn("failed to parse cached JWKS", "key", key, "error", parseErr)
	case !errors.Is(err, redis.Nil):
		c.warn("redis lookup failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		raw, maxAge, err := fetchJWKS(ctx, c.httpClient, jwksURI)
		if err != nil {
			return nil, fmt.Errorf("could not fetch JWKS: %w", err)
		}
		set, err := jwk.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWKS: %w", err)
		}

		if err := c.client.Set(ctx, key, raw, effectiveTTL(c.ttl, maxAge)).Err(); err != nil {
			c.warn("failed to cache JWKS in redis", "key", key, "error", err)
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
