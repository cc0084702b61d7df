/*
Copyright © 2026 masteryyh <yyh991013@163.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts attempts per key, for example per client address and route.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// New picks the redis limiter when a client is given, the in-process one otherwise.
// A disabled config yields a limiter that allows everything.
func New(cfg *config.RateLimitConfig, rdb *redis.Client) Limiter {
	if cfg == nil || !cfg.Enabled {
		return noopLimiter{}
	}
	if rdb != nil {
		return NewRedisLimiter(rdb, cfg.Requests, cfg.Window)
	}
	return NewMemoryLimiter(cfg.Requests, cfg.Window)
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// RedisLimiter is a fixed window counter shared by every instance using the same redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: "vidtube:ratelimit:"}
}

// Allow counts the attempt and reads the window's remaining time in one MULTI/EXEC.
// The expiry is only written when the key has none, which is the first hit of a window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.prefix + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	if _, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pttl = pipe.PTTL(ctx, redisKey)
		return nil
	}); err != nil {
		return Decision{}, fmt.Errorf("failed to count %s: %w", redisKey, err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		// new window, or the expiry got lost and the key would block forever
		if err := l.rdb.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to expire %s: %w", redisKey, err)
		}
		ttl = l.window
	}
	if incr.Val() <= int64(l.limit) {
		return Decision{Allowed: true}, nil
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   max(1, limit),
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rate := float64(l.limit) / l.window.Seconds()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.limit), lastSeen: now}
		l.buckets[key] = b
	} else {
		b.tokens = min(float64(l.limit), b.tokens+now.Sub(b.lastSeen).Seconds()*rate)
		b.lastSeen = now
	}
	l.evictLocked(now)

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true}, nil
	}
	wait := time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return Decision{Allowed: false, RetryAfter: wait}, nil
}

func (l *MemoryLimiter) evictLocked(now time.Time) {
	cutoff := now.Add(-2 * l.window)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
