package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "u1", "traveler", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tok.Token, claims, func(*jwt.Token) (any, error) { return []byte("s3cret"), nil }); err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims["sub"] != "u1" || claims["role"] != "TRAVELER" {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if d := time.Until(tok.Exp); d < 59*time.Minute || d > time.Hour {
		t.Fatalf("unexpected expiry in %v", d)
	}
}

func TestNewAccessToken_Validation(t *testing.T) {
	if _, err := NewAccessToken("", "u1", "ADMIN", time.Hour); err == nil {
		t.Fatal("expected error without secret")
	}
	if _, err := NewAccessToken("s", "", "ADMIN", time.Hour); err == nil {
		t.Fatal("expected error without subject")
	}
	if _, err := NewAccessToken("s", "u1", "ADMIN", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
