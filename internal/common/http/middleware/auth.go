package middleware

import (
	"context"
	"strings"

	"codejudge/internal/common/auth"
	pkgerrors "codejudge/pkg/errors"
	"codejudge/pkg/utils/contextkey"
	"codejudge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AnonymousUser is the identity used for submissions when auth is public and no user header is sent.
const AnonymousUser = "anonymous"

// AuthPolicy selects how a route group identifies its caller.
// Mode "public" trusts the X-User-Id header; any other mode requires a bearer token.
type AuthPolicy struct {
	Mode  string
	Roles []string
}

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (auth.UserInfo, error)
}

// AuthMiddleware resolves the caller identity and stores it under contextkey.UserID.
func AuthMiddleware(authenticator Authenticator, policy AuthPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(policy.Mode, "public") {
			userID := strings.TrimSpace(c.GetHeader(userIDHeader))
			if userID == "" {
				userID = AnonymousUser
			}
			setContextValue(c, contextkey.UserID, userID)
			c.Next()
			return
		}
		if authenticator == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		info, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		if len(policy.Roles) > 0 && !hasRole(info.Role, policy.Roles) {
			response.AbortWithErrorCode(c, pkgerrors.Forbidden, "insufficient role")
			return
		}

		setContextValue(c, contextkey.UserID, info.ID)
		setContextValue(c, contextkey.UserRole, info.Role)
		c.Next()
	}
}

// UserID returns the caller identity resolved by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(contextkey.UserID.String())
}

func extractBearerToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func hasRole(role string, allowed []string) bool {
	for _, item := range allowed {
		if strings.EqualFold(role, item) {
			return true
		}
	}
	return false
}
