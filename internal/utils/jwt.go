package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by JWTExpiry for tokens that are not JWTs or carry
// no expiration claim.
var ErrNotJWT = errors.New("token is not a JWT with an expiration claim")

// JWTExpiry extracts the expiration time (exp claim) from tokenString without
// verifying its signature. The signing key belongs to the mail server; the
// client only uses the claim to avoid sending a request that is bound to be
// rejected.
//
// Returns ErrNotJWT (wrapped) when the token cannot be parsed or has no exp.
//
// Example usage:
//
//	exp, err := utils.JWTExpiry(token)
//	if err == nil && time.Now().After(exp) {
//	    // token expired
//	}
func JWTExpiry(tokenString string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrNotJWT, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNotJWT
	}
	return claims.ExpiresAt.Time, nil
}

// IsJWTExpired reports whether tokenString is a JWT whose exp claim is at or
// before now. Opaque tokens are never considered expired.
func IsJWTExpired(tokenString string, now time.Time) bool {
	exp, err := JWTExpiry(tokenString)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Split(strings.TrimSpace(authorizationHeader), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
