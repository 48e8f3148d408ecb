package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHMACWireFormat(t *testing.T) {
	svc := NewHMAC("s3cret", time.Hour).(*hmacService)
	fixed := time.UnixMilli(1735689600000)
	svc.now = func() time.Time { return fixed }

	token, claims, err := svc.Issue("admin@allbound.in")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	body, sig, ok := strings.Cut(token, ".")
	if !ok {
		t.Fatalf("token has no separator: %q", token)
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("body is not std base64: %v", err)
	}
	if want := `{"email":"admin@allbound.in","iat":1735689600000,"exp":1735693200000}`; string(raw) != want {
		t.Fatalf("payload: got=%s want=%s", raw, want)
	}
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte(body))
	if want := hex.EncodeToString(mac.Sum(nil)); sig != want {
		t.Fatalf("signature: got=%s want=%s", sig, want)
	}
	if !claims.ExpiresAt.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("exp: got=%v", claims.ExpiresAt)
	}

	got, err := svc.Verify(token)
	if err != nil || got.Email != "admin@allbound.in" {
		t.Fatalf("Verify: claims=%+v err=%v", got, err)
	}
}

func TestHMACVerifyFailures(t *testing.T) {
	svc := NewHMAC("s3cret", time.Minute).(*hmacService)
	now := time.Now()
	svc.now = func() time.Time { return now }
	token, _, _ := svc.Issue("admin@allbound.in")

	other := NewHMAC("other", time.Minute)
	if _, err := other.Verify(token); !errors.Is(err, ErrSignature) {
		t.Fatalf("wrong secret: got=%v", err)
	}
	if _, err := svc.Verify("no-dot"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("malformed: got=%v", err)
	}

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired: got=%v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc, err := New(Config{Secret: "s3cret", TTL: time.Hour, Format: "jwt"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, _, err := svc.Issue("admin@allbound.in")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a three part jwt: %q", token)
	}
	claims, err := svc.Verify(token)
	if err != nil || claims.Email != "admin@allbound.in" {
		t.Fatalf("Verify: claims=%+v err=%v", claims, err)
	}

	legacy, _ := New(Config{Secret: "s3cret", TTL: time.Hour})
	if _, err := legacy.Verify(token); err == nil {
		t.Fatalf("legacy verifier accepted a jwt")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Secret: "x", Format: "paseto"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := New(Config{Format: "jwt"}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
