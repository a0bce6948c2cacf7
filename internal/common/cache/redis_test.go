package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c, err := NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c, mr
}

func TestRedisCache_GetMissingKeyReturnsEmpty(t *testing.T) {
	c, _ := newTestCache(t)
	got, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

func TestRedisCache_SetGetDelAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := c.Get(ctx, "k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
	if n, _ := c.Exists(ctx, "k", "other"); n != 1 {
		t.Fatalf("expected 1 existing key, got %d", n)
	}

	mr.FastForward(2 * time.Minute)
	if got, _ := c.Get(ctx, "k"); got != "" {
		t.Fatalf("expected key to expire, got %q", got)
	}

	_ = c.Set(ctx, "k2", "v2", 0)
	if err := c.Del(ctx, "k2"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("k2") {
		t.Fatalf("expected k2 to be deleted")
	}
}

func TestRedisCache_SetOps(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.SAdd(ctx, "set", "a", "b"); err != nil {
		t.Fatalf("sadd: %v", err)
	}
	ok, err := c.SIsMember(ctx, "set", "a")
	if err != nil || !ok {
		t.Fatalf("expected a to be member, ok=%v err=%v", ok, err)
	}
	_ = c.SRem(ctx, "set", "a")
	if ok, _ := c.SIsMember(ctx, "set", "a"); ok {
		t.Fatalf("expected a to be removed")
	}
}

func TestGetWithCached_CachesValueAndMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(value int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			calls++
			return value, nil
		}
	}
	isEmpty := func(v int) bool { return v == 0 }
	marshal := func(v int) string { return strconv.Itoa(v) }
	unmarshal := func(s string) (int, error) { return strconv.Atoi(s) }

	got, err := GetWithCached(ctx, c, "num", time.Minute, time.Second, isEmpty, marshal, unmarshal, fetch(7))
	if err != nil || got != 7 {
		t.Fatalf("expected 7, got %d err=%v", got, err)
	}
	got, _ = GetWithCached(ctx, c, "num", time.Minute, time.Second, isEmpty, marshal, unmarshal, fetch(9))
	if got != 7 || calls != 1 {
		t.Fatalf("expected cached 7 after one fetch, got %d calls=%d", got, calls)
	}

	got, _ = GetWithCached(ctx, c, "missing", time.Minute, time.Second, isEmpty, marshal, unmarshal, fetch(0))
	if got != 0 {
		t.Fatalf("expected zero for empty value, got %d", got)
	}
	if v, _ := mr.Get("missing"); v != NullCacheValue {
		t.Fatalf("expected null marker, got %q", v)
	}
}

func TestGetWithCached_PropagatesFetchError(t *testing.T) {
	c, _ := newTestCache(t)
	boom := errors.New("db down")
	_, err := GetWithCached(context.Background(), c, "k", time.Minute, time.Second,
		func(v string) bool { return v == "" },
		func(v string) string { return v },
		func(s string) (string, error) { return s, nil },
		func(context.Context) (string, error) { return "", boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestJitterTTL(t *testing.T) {
	ttl := 10 * time.Minute
	for i := 0; i < 20; i++ {
		got := JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("jittered ttl %v out of range", got)
		}
	}
	if JitterTTL(0) != 0 {
		t.Fatalf("expected zero ttl unchanged")
	}
}
