package agent

import (
	"testing"
	"time"
)

func TestTokenSignerRoundtrip(t *testing.T) {
	signer, err := NewTokenSigner("test-secret", "rentflow", WithTokenTTL(time.Hour))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	token, expiresAt, err := signer.Sign("agent-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 55*time.Minute {
		t.Fatalf("unexpected expiry, remaining %s", remaining)
	}

	agentID, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if agentID != "agent-1" {
		t.Fatalf("agentID = %q, want agent-1", agentID)
	}
}

func TestTokenSignerRejectsEmptySecret(t *testing.T) {
	if _, err := NewTokenSigner("  ", "rentflow"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenSignerRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer, err := NewTokenSigner("test-secret", "rentflow",
		WithTokenTTL(time.Hour),
		WithSignerClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	token, _, err := issuer.Sign("agent-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	verifier, err := NewTokenSigner("test-secret", "rentflow")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestTokenSignerRejectsWrongSecret(t *testing.T) {
	signer, err := NewTokenSigner("secret-a", "rentflow")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	token, _, err := signer.Sign("agent-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other, err := NewTokenSigner("secret-b", "rentflow")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification with the wrong secret to fail")
	}
}

func TestTokenSignerRejectsIssuerMismatch(t *testing.T) {
	signer, err := NewTokenSigner("test-secret", "other-service")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	token, _, err := signer.Sign("agent-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	verifier, err := NewTokenSigner("test-secret", "rentflow")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected issuer mismatch to fail verification")
	}
}

func TestTokenSignerRejectsGarbage(t *testing.T) {
	signer, err := NewTokenSigner("test-secret", "rentflow")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	for _, token := range []string{"", "   ", "not-a-token", "a.b.c"} {
		if _, err := signer.Verify(token); err == nil {
			t.Fatalf("expected %q to fail verification", token)
		}
	}
}
