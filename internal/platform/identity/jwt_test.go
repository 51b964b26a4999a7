package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestVerifierRoundTrip(t *testing.T) {
	v, err := NewVerifier("test-secret", "learnquest")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	userID := uuid.New()
	tok, err := v.Mint(userID, time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	got, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != userID {
		t.Fatalf("subject: want=%s got=%s", userID, got)
	}
}

func TestVerifierRejects(t *testing.T) {
	v, _ := NewVerifier("test-secret", "learnquest")
	other, _ := NewVerifier("other-secret", "learnquest")
	wrongIssuer, _ := NewVerifier("test-secret", "someone-else")

	foreign, _ := other.Mint(uuid.New(), time.Minute)
	issuedElsewhere, _ := wrongIssuer.Mint(uuid.New(), time.Minute)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "learnquest",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret"))
	notUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "learnquest",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("test-secret"))

	cases := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": foreign,
		"wrong issuer": issuedElsewhere,
		"expired":      expired,
		"non-uuid sub": notUser,
	}
	for name, tok := range cases {
		if _, err := v.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken got=%v", name, err)
		}
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(" ", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
