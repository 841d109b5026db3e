package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

const keyPrefix = "uptime:streak:"

// StreakStore keeps one counter per site. INCR is atomic on the server, so
// replicas sharing a Redis see a single consistent streak.
type StreakStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewStreakStore returns a store whose keys expire ttl after the last write.
// A zero ttl keeps keys forever.
func NewStreakStore(client goredis.UniversalClient, ttl time.Duration) *StreakStore {
	return &StreakStore{client: client, ttl: ttl}
}

// NewClientFromURL parses a redis:// URL and pings the server.
func NewClientFromURL(ctx context.Context, redisURL string) (*goredis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(id domain.SiteID) string { return keyPrefix + string(id) }

func (s *StreakStore) Increment(ctx context.Context, id domain.SiteID) (int, error) {
	k := key(id)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", k, err)
	}
	return int(incr.Val()), nil
}

func (s *StreakStore) Reset(ctx context.Context, id domain.SiteID) error {
	k := key(id)
	if err := s.client.Set(ctx, k, 0, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis reset %s: %w", k, err)
	}
	return nil
}

var _ repo.StreakStore = (*StreakStore)(nil)
