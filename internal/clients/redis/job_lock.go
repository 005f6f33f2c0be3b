package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/loungely/knowledge-backend/internal/pkg/envutil"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

// JobLock guards enqueueing so one entity has at most one runnable job at a
// time, even across instances.
type JobLock interface {
	// TryAcquire returns true when the caller won the lock for key.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string)
}

type redisJobLock struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewJobLock(log *logger.Logger) (JobLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(envutil.Get("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisJobLock{
		log:    log.With("service", "RedisJobLock"),
		rdb:    rdb,
		prefix: envutil.Get("REDIS_LOCK_PREFIX", "joblock:"),
	}, nil
}

func (l *redisJobLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *redisJobLock) Release(ctx context.Context, key string) {
	if err := l.rdb.Del(ctx, l.prefix+key).Err(); err != nil {
		l.log.Warn("release job lock", "key", key, "error", err)
	}
}

// localJobLock is the single-instance fallback when Redis is not configured.
type localJobLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocalJobLock() JobLock {
	return &localJobLock{held: make(map[string]time.Time), clock: time.Now}
}

func (l *localJobLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func (l *localJobLock) Release(ctx context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
