package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

const defaultStatsKey = "aleator:site_stats"

type Options struct {
	Addr     string
	Password string
	DB       int
	// Key defaults to "aleator:site_stats".
	Key string
}

type StatsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

// NewStatsCache connects and pings Redis; callers fall back to an in-process
// cache when it fails.
func NewStatsCache(log *logger.Logger, opts Options) (*StatsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = defaultStatsKey
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &StatsCache{
		log: log.With("service", "RedisStatsCache"),
		rdb: rdb,
		key: key,
	}, nil
}

func (c *StatsCache) Get(ctx context.Context) (*types.SiteStats, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, fmt.Errorf("redis stats cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stats types.SiteStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.log.Warn("bad cached stats payload", "error", err)
		return nil, false, nil
	}
	return &stats, true, nil
}

func (c *StatsCache) Set(ctx context.Context, stats *types.SiteStats, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis stats cache not initialized")
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, raw, ttl).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key).Err()
}

func (c *StatsCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
