// Package jwt reads expiry information out of access tokens.
//
// Tokens are decoded WITHOUT verifying their signature. This is only used to
// decide when to refresh on the client; it is not a security boundary and
// the backend must independently reject expired or forged tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrMissingExpiry  = errors.New("token has no exp claim")
	unverifiedParser  = jwt.NewParser()
	defaultSigningKey = []byte("healthmate-local")
)

// ExpiresAt returns the exp claim of a token
func ExpiresAt(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if exp == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return exp.Time, nil
}

// IsExpired reports whether the token's exp claim lies in the past.
// Malformed tokens count as expired.
func IsExpired(tokenString string) bool {
	return IsExpiredAt(tokenString, time.Now())
}

// IsExpiredAt is IsExpired against an explicit clock
func IsExpiredAt(tokenString string, now time.Time) bool {
	exp, err := ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return exp.Before(now)
}

// ExpiresWithin reports whether the token expires before now+window
func ExpiresWithin(tokenString string, window time.Duration, now time.Time) bool {
	exp, err := ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return exp.Before(now.Add(window))
}

// Claims represents the access token claims issued by the REST backend
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token that expires at the given time.
// Used by fakes and local tooling; real tokens come from the backend.
func GenerateAccessToken(userID string, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(defaultSigningKey)
}
