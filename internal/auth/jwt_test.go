package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tok, err := m.GenerateAccessToken("u1", "ada@example.com", "SELLER")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "SELLER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewManager("other-secret", time.Hour)
	if _, err := other.VerifyAccessToken(tok); err == nil {
		t.Fatalf("token signed with another secret should not verify")
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	tok, err := m.GenerateAccessToken("u1", "ada@example.com", "BUYER")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.VerifyAccessToken(tok); err == nil {
		t.Fatalf("expired token should not verify")
	}

	// Peek still decodes it
	claims, err := Peek(tok)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if claims.Email != "ada@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
}

func TestPeekGarbage(t *testing.T) {
	if _, err := Peek("not-a-jwt"); err == nil {
		t.Fatalf("expected error for opaque token")
	}
}
