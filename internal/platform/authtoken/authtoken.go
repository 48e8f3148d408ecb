// Package authtoken issues and verifies admin bearer tokens.
//
// Two formats are supported behind TokenService. The legacy format is
// base64(json{email,iat,exp}) + "." + hex(hmac_sha256(secret, base64_part))
// with millisecond timestamps, kept for compatibility with tokens already held
// by admin browsers. The jwt format is a standard HS256 JWT.
package authtoken

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMalformed = errors.New("malformed token")
	ErrSignature = errors.New("invalid token signature")
	ErrExpired   = errors.New("token expired")
)

type Claims struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenService interface {
	Issue(email string) (string, Claims, error)
	Verify(token string) (Claims, error)
}

const (
	FormatLegacy = "legacy"
	FormatJWT    = "jwt"
)

type Config struct {
	Secret string
	TTL    time.Duration
	Format string
	Issuer string
}

// New picks the implementation named by cfg.Format (legacy when empty).
func New(cfg Config) (TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("authtoken: secret required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatLegacy:
		return NewHMAC(cfg.Secret, cfg.TTL), nil
	case FormatJWT:
		return NewJWT(cfg.Secret, cfg.Issuer, cfg.TTL), nil
	default:
		return nil, errors.New("authtoken: unknown format " + cfg.Format)
	}
}
