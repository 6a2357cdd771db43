package helpers

import (
	"testing"
	"time"
)

func TestJWTManager_MintAndParse(t *testing.T) {
	m := NewJWTManager("test-secret", 7*24*time.Hour)

	token, exp, err := m.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if until := time.Until(exp); until < 7*24*time.Hour-time.Minute {
		t.Errorf("expiry %v from now, want ~7 days", until)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, "user-123")
	}
}

func TestJWTManager_ParseRejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	token, _, err := m.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Error("Parse() accepted an expired token")
	}
}

func TestJWTManager_ParseRejectsWrongSecret(t *testing.T) {
	a := NewJWTManager("secret-a", time.Hour)
	token, _, err := a.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	b := NewJWTManager("secret-b", time.Hour)
	if _, err := b.Parse(token); err == nil {
		t.Error("Parse() accepted a token signed with a different secret")
	}
}

func TestJWTManager_ParseRejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := m.Parse(tok); err == nil {
			t.Errorf("Parse(%q) accepted a malformed token", tok)
		}
	}
}
