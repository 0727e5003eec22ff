// Package auth holds the stateless credential primitives: the access-token
// codec, bearer header parsing, refresh token generation and password
// verifiers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const bearerPrefix = "Bearer "

// Claims is the access-token payload. LastModifiedDate is the owner's
// freshness mark in Unix milliseconds at issuance. ExpiresAtMillis is the
// authoritative expiry; the registered exp claim only has second precision.
type Claims struct {
	LastModifiedDate int64 `json:"lastModifiedDate"`
	ExpiresAtMillis  int64 `json:"expiresAtMillis"`
	jwt.RegisteredClaims
}

// TokenInfo is the decoded, signature-checked content of an access token.
type TokenInfo struct {
	Subject       string
	FreshnessMark time.Time
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// TokenCodec signs and parses HS256 access tokens. It is immutable after
// construction and safe for concurrent use.
type TokenCodec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec builds a codec. now may be nil, in which case the wall clock
// is used.
func NewTokenCodec(key []byte, ttl time.Duration, now func() time.Time) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("access token lifetime must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{
		key: key,
		ttl: ttl,
		now: now,
		// Expiry is judged by IsCurrentlyValid, not at decode time: the
		// refresh flow must be able to read an expired token.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue mints a token for username carrying freshnessMark.
func (c *TokenCodec) Issue(username string, freshnessMark time.Time) (string, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)
	claims := Claims{
		LastModifiedDate: freshnessMark.UnixMilli(),
		ExpiresAtMillis:  expiresAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and decodes the token without judging its
// expiry or freshness. Any failure is reported as domain.ErrTokenUnreadable.
func (c *TokenCodec) Parse(tokenString string) (*TokenInfo, error) {
	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrTokenUnreadable
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrTokenUnreadable
	}

	info := &TokenInfo{
		Subject:       claims.Subject,
		FreshnessMark: time.UnixMilli(claims.LastModifiedDate).UTC(),
		ExpiresAt:     claims.ExpiresAt.Time,
	}
	if claims.ExpiresAtMillis > 0 {
		info.ExpiresAt = time.UnixMilli(claims.ExpiresAtMillis).UTC()
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}

// Subject decodes the token and returns its subject.
func (c *TokenCodec) Subject(tokenString string) (string, error) {
	info, err := c.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return info.Subject, nil
}

// IsCurrentlyValid reports whether the token belongs to expectedUsername, has
// not expired, and was minted no earlier than expectedMark. Advancing the
// user's mark therefore rejects every token issued before the change.
func (c *TokenCodec) IsCurrentlyValid(tokenString, expectedUsername string, expectedMark time.Time) bool {
	info, err := c.Parse(tokenString)
	if err != nil {
		return false
	}
	if info.Subject != expectedUsername {
		return false
	}
	if !c.now().Before(info.ExpiresAt) {
		return false
	}
	return info.FreshnessMark.UnixMilli() >= expectedMark.UnixMilli()
}

// ExtractBearer strips the "Bearer " prefix from an Authorization header.
func ExtractBearer(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", domain.ErrNoToken
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", domain.ErrNoToken
	}
	return token, nil
}

// NewRefreshToken returns a random opaque refresh token.
func NewRefreshToken() string {
	return uuid.NewString()
}
