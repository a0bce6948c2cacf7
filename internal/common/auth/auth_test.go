package auth

import (
	"context"
	"testing"
	"time"

	"codejudge/internal/common/cache"
	pkgerrors "codejudge/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newBlacklist(t *testing.T) *TokenBlacklist {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rc, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return NewTokenBlacklist(rc, time.Second, 16, time.Minute)
}

func TestAuthenticator_RoundTrip(t *testing.T) {
	a := NewAuthenticator("secret", "codejudge", nil)
	token, err := a.Issue("user-7", "user", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	info, err := a.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if info.ID != "user-7" || info.Role != "user" {
		t.Fatalf("unexpected user info %+v", info)
	}
}

func TestAuthenticator_Rejects(t *testing.T) {
	a := NewAuthenticator("secret", "codejudge", nil)
	expired, _ := a.Issue("u", "user", -time.Minute)
	otherIssuer, _ := NewAuthenticator("secret", "someone-else", nil).Issue("u", "user", time.Minute)
	wrongSecret, _ := NewAuthenticator("other", "codejudge", nil).Issue("u", "user", time.Minute)

	cases := []struct {
		name  string
		token string
		code  pkgerrors.ErrorCode
	}{
		{name: "empty", token: "", code: pkgerrors.Unauthorized},
		{name: "garbage", token: "not-a-jwt", code: pkgerrors.TokenInvalid},
		{name: "expired", token: expired, code: pkgerrors.TokenExpired},
		{name: "issuer mismatch", token: otherIssuer, code: pkgerrors.TokenInvalid},
		{name: "wrong secret", token: wrongSecret, code: pkgerrors.TokenInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), tc.token)
			if !pkgerrors.Is(err, tc.code) {
				t.Fatalf("expected code %d, got %v", tc.code, err)
			}
		})
	}
}

func TestAuthenticator_RevokedToken(t *testing.T) {
	bl := newBlacklist(t)
	a := NewAuthenticator("secret", "", bl)
	token, _ := a.Issue("u", "user", time.Minute)

	if _, err := a.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if err := bl.Revoke(context.Background(), HashToken(token)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := a.Authenticate(context.Background(), token); !pkgerrors.Is(err, pkgerrors.TokenInvalid) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := newLRUCache(2, 0)
	c.add("a")
	c.add("b")
	c.add("c")
	if c.get("a") {
		t.Fatal("expected a to be evicted")
	}
	if !c.get("b") || !c.get("c") {
		t.Fatal("expected b and c to remain")
	}
}
