package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type legacyPayload struct {
	Email string `json:"email"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

type hmacService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewHMAC(secret string, ttl time.Duration) TokenService {
	return &hmacService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *hmacService) Issue(email string) (string, Claims, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	raw, err := json.Marshal(legacyPayload{
		Email: strings.TrimSpace(email),
		Iat:   now.UnixMilli(),
		Exp:   exp.UnixMilli(),
	})
	if err != nil {
		return "", Claims{}, err
	}
	body := base64.StdEncoding.EncodeToString(raw)
	token := body + "." + s.sign(body)
	return token, Claims{
		Email:     strings.TrimSpace(email),
		IssuedAt:  time.UnixMilli(now.UnixMilli()),
		ExpiresAt: time.UnixMilli(exp.UnixMilli()),
	}, nil
}

func (s *hmacService) Verify(token string) (Claims, error) {
	body, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || body == "" || sig == "" {
		return Claims{}, ErrMalformed
	}
	want := s.sign(body)
	if !hmac.Equal([]byte(strings.ToLower(sig)), []byte(want)) {
		return Claims{}, ErrSignature
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var p legacyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.Email == "" || p.Exp == 0 {
		return Claims{}, ErrMalformed
	}
	if s.now().UnixMilli() >= p.Exp {
		return Claims{}, ErrExpired
	}
	return Claims{
		Email:     p.Email,
		IssuedAt:  time.UnixMilli(p.Iat),
		ExpiresAt: time.UnixMilli(p.Exp),
	}, nil
}

func (s *hmacService) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
