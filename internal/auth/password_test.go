package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}

	hash, err := h.Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "Secret123" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", hash)
	}

	ok, err := h.Compare(hash, "Secret123")
	if err != nil || !ok {
		t.Fatalf("Compare(correct) = %v, %v", ok, err)
	}
	ok, err = h.Compare(hash, "Secret124")
	if err != nil || ok {
		t.Fatalf("Compare(wrong) = %v, %v", ok, err)
	}

	h.CompareDummy("anything")
}

func TestBcryptHasherMalformedHash(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	if _, err := h.Compare("plain", "plain"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestDefaultCostIsTen(t *testing.T) {
	if PasswordCost != 10 {
		t.Fatalf("expected cost 10, got %d", PasswordCost)
	}
	if _, err := NewBcryptHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatalf("expected error for out-of-range cost")
	}
}
