package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims decodes the payload of a JWT without verifying its signature.
// The client never holds the signing key; this is for display and for
// reading the expiry.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of a JWT, or nil when it has none.
func ExpiresAt(token string) (*time.Time, error) {
	claims, err := Claims(token)
	if err != nil {
		return nil, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("read exp: %w", err)
	}
	if exp == nil {
		return nil, nil
	}
	t := exp.Time.UTC()
	return &t, nil
}
