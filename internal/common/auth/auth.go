package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "codejudge/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

// UserInfo is the identity carried by a verified access token.
type UserInfo struct {
	ID   string
	Role string
}

// Authenticator verifies HS256 access tokens and consults the revocation list.
type Authenticator struct {
	jwtSecret []byte
	jwtIssuer string
	blacklist *TokenBlacklist
}

func NewAuthenticator(jwtSecret, jwtIssuer string, blacklist *TokenBlacklist) *Authenticator {
	return &Authenticator{
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
		blacklist: blacklist,
	}
}

type tokenClaims struct {
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Authenticate validates raw and returns the user it was issued to.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (UserInfo, error) {
	if raw == "" {
		return UserInfo{}, pkgerrors.New(pkgerrors.Unauthorized).WithMessage("missing bearer token")
	}
	claims, err := a.parseToken(raw)
	if err != nil {
		return UserInfo{}, err
	}
	if a.blacklist != nil {
		revoked, err := a.blacklist.IsBlacklisted(ctx, HashToken(raw))
		if err != nil {
			return UserInfo{}, pkgerrors.Wrap(err, pkgerrors.ServiceUnavailable)
		}
		if revoked {
			return UserInfo{}, pkgerrors.New(pkgerrors.TokenInvalid)
		}
	}
	return UserInfo{ID: claims.Subject, Role: claims.Role}, nil
}

// Issue signs an access token for userID valid for ttl.
func (a *Authenticator) Issue(userID, role string, ttl time.Duration) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := tokenClaims{
		Role:      role,
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

func (a *Authenticator) parseToken(raw string) (*tokenClaims, error) {
	if len(a.jwtSecret) == 0 {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if a.jwtIssuer != "" && claims.Issuer != a.jwtIssuer {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if claims.TokenType != accessTokenType || strings.TrimSpace(claims.Subject) == "" {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return claims, nil
}

// HashToken returns the blacklist key for a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
