// Package utils holds the token and password helpers used by the auth
// handler, the JWT middleware and the CLI.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// ErrInvalidToken is returned by ParseAccessToken for any token that
// fails signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken signs a token carrying sub (the user id), role, exp
// and iat claims.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates raw and returns its subject and role.
// Only HMAC-signed tokens are accepted.
func ParseAccessToken(secret, raw string) (uint64, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return 0, "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	// numeric claims decode as float64
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return uint64(sub), role, nil
}
