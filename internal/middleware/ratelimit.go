package middleware

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed window counter shared by every replica.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("%s:%s", r.prefix, key)
	var count *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Incr(ctx, k)
		ttl = p.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, err
	}
	// a counter without expiry would block the key forever; this also repairs
	// one left behind by a failed EXPIRE
	if ttl.Val() < 0 {
		if err := r.rdb.Expire(ctx, k, r.window).Err(); err != nil {
			return false, err
		}
	}
	return count.Val() <= int64(r.limit), nil
}

// LocalLimiter keeps a token bucket per key in process.
type LocalLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
}

type visitor struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(perMinute, burst int) *LocalLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &LocalLimiter{rps: rate.Limit(float64(perMinute) / 60.0), burst: burst}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	v, _ := l.visitors.LoadOrStore(key, &visitor{limiter: rate.NewLimiter(l.rps, l.burst)})
	vi := v.(*visitor)
	vi.mu.Lock()
	vi.lastSeen = time.Now()
	vi.mu.Unlock()
	return vi.limiter.Allow(), nil
}

// Cleanup drops visitors idle for longer than idle until ctx ends.
func (l *LocalLimiter) Cleanup(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.sweep(time.Now().Add(-idle))
		}
	}
}

func (l *LocalLimiter) sweep(cutoff time.Time) {
	l.visitors.Range(func(k, v any) bool {
		vi := v.(*visitor)
		vi.mu.Lock()
		stale := vi.lastSeen.Before(cutoff)
		vi.mu.Unlock()
		if stale {
			l.visitors.Delete(k)
		}
		return true
	})
}

// RateLimit rejects requests over the limit with 429, keyed by client IP.
func RateLimit(l Limiter, log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := clientIP(c)
		ok, err := l.Allow(c.UserContext(), ip)
		if err != nil {
			log.Errorw("rate limiter error", "err", err)
			return utils.JSONError(c, fiber.StatusInternalServerError, "rate limiter error")
		}
		if !ok {
			log.Warnw("rate limit exceeded", "ip", ip, "path", c.Path())
			return utils.Fail(c, utils.ErrRateLimited)
		}
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
