package service

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("hash must differ from plaintext")
	}
	if err := h.Verify("secret1", hash); err != nil {
		t.Fatalf("Verify with correct password: %v", err)
	}
	if err := h.Verify("secret2", hash); err == nil {
		t.Fatalf("Verify must fail for a wrong password")
	}

	again, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if again == hash {
		t.Fatalf("hashes must be salted")
	}
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	if h := NewBcryptHasher(1); h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
}
