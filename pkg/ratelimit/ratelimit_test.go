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
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterBlocksAfterLimit(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := range 3 {
		d, err := l.Allow(context.Background(), "1.2.3.4")
		if err != nil || !d.Allowed {
			t.Fatalf("expected attempt %d to pass, got %+v, %v", i+1, d, err)
		}
	}

	d, _ := l.Allow(context.Background(), "1.2.3.4")
	if d.Allowed {
		t.Fatal("expected fourth attempt to be blocked")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 21*time.Second {
		t.Fatalf("unexpected retry after %s", d.RetryAfter)
	}

	other, _ := l.Allow(context.Background(), "5.6.7.8")
	if !other.Allowed {
		t.Fatal("expected other keys to be unaffected")
	}

	now = now.Add(21 * time.Second)
	d, _ = l.Allow(context.Background(), "1.2.3.4")
	if !d.Allowed {
		t.Fatal("expected a token to be refilled after 21s")
	}
}

func TestMemoryLimiterEvictsIdleKeys(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a")
	now = now.Add(3 * time.Minute)
	_, _ = l.Allow(context.Background(), "b")

	if _, ok := l.buckets["a"]; ok {
		t.Fatal("expected idle key to be evicted")
	}
}

func TestNewDisabledAllowsEverything(t *testing.T) {
	l := New(&config.RateLimitConfig{Enabled: false}, nil)
	for range 100 {
		if d, _ := l.Allow(context.Background(), "k"); !d.Allowed {
			t.Fatal("expected disabled limiter to allow")
		}
	}
	if _, ok := New(&config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Second}, nil).(*MemoryLimiter); !ok {
		t.Fatal("expected memory limiter without redis")
	}
}

func TestRedisLimiterReportsUnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	l := New(&config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Second}, rdb)
	if _, ok := l.(*RedisLimiter); !ok {
		t.Fatal("expected redis limiter when a client is given")
	}
	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

// scriptedRedis answers commands in process through client hooks, so the limiter's
// command flow can be checked without a server. It counts round trips.
type scriptedRedis struct {
	mu        sync.Mutex
	counts    map[string]int64
	expiries  map[string]time.Duration
	commands  int
	pipelines int
}

func newScriptedRedis(t *testing.T) (*redis.Client, *scriptedRedis) {
	t.Helper()
	s := &scriptedRedis{counts: map[string]int64{}, expiries: map[string]time.Duration{}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	rdb.AddHook(s)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, s
}

func (s *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (s *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.commands++
		s.apply(cmd)
		return nil
	}
}

func (s *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pipelines++
		for _, cmd := range cmds {
			s.apply(cmd)
		}
		return nil
	}
}

func (s *scriptedRedis) apply(cmd redis.Cmder) {
	args := cmd.Args()
	if len(args) < 2 {
		return
	}
	key, _ := args[1].(string)
	switch strings.ToLower(cmd.Name()) {
	case "incr":
		s.counts[key]++
		cmd.(*redis.IntCmd).SetVal(s.counts[key])
	case "pttl":
		ttl, ok := s.expiries[key]
		if !ok {
			ttl = -1
		}
		cmd.(*redis.DurationCmd).SetVal(ttl)
	case "pexpire":
		if ms, ok := args[2].(int64); ok {
			s.expiries[key] = time.Duration(ms) * time.Millisecond
		}
		cmd.(*redis.BoolCmd).SetVal(true)
	}
}

func TestRedisLimiterCountsInOneTransaction(t *testing.T) {
	rdb, fake := newScriptedRedis(t)
	l := NewRedisLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	for i := range 2 {
		d, err := l.Allow(ctx, "login")
		if err != nil {
			t.Fatalf("attempt %d failed: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("expected attempt %d to be allowed", i)
		}
	}
	d, err := l.Allow(ctx, "login")
	if err != nil {
		t.Fatalf("failed to check limit: %v", err)
	}
	if d.Allowed || d.RetryAfter != time.Minute {
		t.Fatalf("expected a block for one minute, got %+v", d)
	}

	if fake.pipelines != 3 {
		t.Fatalf("expected one transaction per attempt, got %d", fake.pipelines)
	}
	if fake.commands != 1 {
		t.Fatalf("expected the expiry to be written once per window, got %d single commands", fake.commands)
	}
	if fake.expiries["vidtube:ratelimit:login"] != time.Minute {
		t.Fatalf("expected the window as expiry, got %v", fake.expiries)
	}
}
