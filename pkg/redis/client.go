package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "gl"
	lockPrefix   = "lock"
)

// deleteIfValueScript removes KEYS[1] only while it still holds ARGV[1].
const deleteIfValueScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Client wraps the redis operations used for run coordination.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New bootstraps a Redis client with pooling and timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"redis_addr": opts.Addr, "redis_db": opts.DB})
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	url := strings.TrimSpace(cfg.URL)
	addr := strings.TrimSpace(cfg.Address)

	var opts *redis.Options
	switch {
	case url != "":
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	case addr != "":
		opts = &redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	opts.PoolSize = firstPositive(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = firstPositive(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = firstPositive(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = firstPositive(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = firstPositive(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func firstPositive[T int | time.Duration](current, fallback T) T {
	if current > 0 {
		return current
	}
	return fallback
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// DeleteIfValue deletes key atomically when its current value equals value.
// It reports whether the key was removed.
func (c *Client) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	removed, err := c.store.Eval(ctx, deleteIfValueScript, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, keys...).Err()
}

// LockKey returns a namespaced key for distributed locks, e.g.
// gl:lock:relationships:2026-03-04.
func (c *Client) LockKey(scope string, parts ...string) string {
	return buildKey(append([]string{lockPrefix, scope}, parts...)...)
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func buildKey(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, keyNamespace)
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return strings.Join(clean, ":")
}
