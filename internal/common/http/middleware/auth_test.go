package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"codejudge/internal/common/auth"
	pkgerrors "codejudge/pkg/errors"

	"github.com/gin-gonic/gin"
)

type fakeAuthenticator struct {
	tokens map[string]auth.UserInfo
}

func (f fakeAuthenticator) Authenticate(_ context.Context, raw string) (auth.UserInfo, error) {
	if info, ok := f.tokens[raw]; ok {
		return info, nil
	}
	return auth.UserInfo{}, pkgerrors.New(pkgerrors.TokenInvalid)
}

func newAuthRouter(a Authenticator, policy AuthPolicy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TraceContextMiddlewareWithConfig(TraceContextConfig{}))
	router.Use(AuthMiddleware(a, policy))
	router.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	authenticator := fakeAuthenticator{tokens: map[string]auth.UserInfo{
		"good":  {ID: "u1", Role: "user"},
		"admin": {ID: "root", Role: "admin"},
	}}

	cases := []struct {
		name       string
		policy     AuthPolicy
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "public without header is anonymous",
			policy:     AuthPolicy{Mode: "public"},
			wantStatus: http.StatusOK,
			wantBody:   AnonymousUser,
		},
		{
			name:       "public trusts user header",
			policy:     AuthPolicy{Mode: "public"},
			headers:    map[string]string{"X-User-Id": "alice"},
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "token required",
			policy:     AuthPolicy{Mode: "token"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			policy:     AuthPolicy{Mode: "token"},
			headers:    map[string]string{"Authorization": "Bearer good"},
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "role mismatch",
			policy:     AuthPolicy{Mode: "token", Roles: []string{"admin"}},
			headers:    map[string]string{"Authorization": "Bearer good"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "role match is case insensitive",
			policy:     AuthPolicy{Mode: "token", Roles: []string{"ADMIN"}},
			headers:    map[string]string{"Authorization": "bearer admin"},
			wantStatus: http.StatusOK,
			wantBody:   "root",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newAuthRouter(authenticator, tc.policy)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestAuthMiddleware_NilAuthenticator(t *testing.T) {
	router := newAuthRouter(nil, AuthPolicy{Mode: "token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"Basic abc":     "",
		"Bearerabc":     "",
	}
	for in, want := range cases {
		if got := extractBearerToken(in); got != want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
