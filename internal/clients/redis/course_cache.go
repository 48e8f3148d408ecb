package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/allbound-backend/internal/platform/ctxutil"
	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

// CourseCache holds serialized course snapshots shared by every API
// instance. Admin writes call Invalidate so the next read rebuilds from
// the store.
type CourseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, raw []byte) error
	Invalidate(ctx context.Context, keys ...string) error
	Enabled() bool
	Close() error
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Addr:      envutil.String("REDIS_ADDR", ""),
		Password:  envutil.String("REDIS_PASSWORD", ""),
		DB:        envutil.Int("REDIS_DB", 0),
		KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "allbound:"),
		TTL:       envutil.Seconds("COURSE_CACHE_TTL_SECONDS", 10*time.Minute),
	}
}

type courseCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewCourseCache connects to Redis. An empty Addr yields a cache that never
// hits, so callers need no special casing when Redis is not deployed.
func NewCourseCache(log *logger.Logger, cfg Config) (CourseCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		log.Info("REDIS_ADDR not set; course cache disabled")
		return Noop(), nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &courseCache{
		log:    log.With("client", "RedisCourseCache"),
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
	}, nil
}

func (c *courseCache) key(k string) string { return c.prefix + k }

func (c *courseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctxutil.Default(ctx), c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

func (c *courseCache) Set(ctx context.Context, key string, raw []byte) error {
	if err := c.rdb.Set(ctxutil.Default(ctx), c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *courseCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	if err := c.rdb.Del(ctxutil.Default(ctx), full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	c.log.Debug("Course cache invalidated", "keys", full)
	return nil
}

func (c *courseCache) Enabled() bool { return true }

func (c *courseCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

type noopCache struct{}

// Noop returns a cache that stores nothing.
func Noop() CourseCache { return noopCache{} }

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, string, []byte) error         { return nil }
func (noopCache) Invalidate(context.Context, ...string) error       { return nil }
func (noopCache) Enabled() bool                                     { return false }
func (noopCache) Close() error                                      { return nil }
