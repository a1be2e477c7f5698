package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newFastBcrypt(t *testing.T) *Bcrypt {
	t.Helper()
	h, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	return h
}

func TestNewBcryptRejectsOutOfRangeCost(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MinCost - 1); err == nil {
		t.Fatal("expected rejection below MinCost")
	}
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected rejection above MaxCost")
	}
}

func TestBcryptHashVerify(t *testing.T) {
	h := newFastBcrypt(t)

	hash, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if strings.Contains(hash, "correct-horse") {
		t.Fatal("hash must not embed the password")
	}

	ok, err := h.Verify("correct-horse", hash)
	if err != nil || !ok {
		t.Fatalf("Verify of correct password: ok=%v err=%v", ok, err)
	}

	// A mismatch is a result, not an error.
	ok, err = h.Verify("wrong", hash)
	if err != nil {
		t.Fatalf("Verify of wrong password returned error: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestBcryptVerifyMalformedHash(t *testing.T) {
	h := newFastBcrypt(t)
	if _, err := h.Verify("anything", "not-a-bcrypt-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	low := newFastBcrypt(t)
	hash, err := low.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	higher, err := NewBcrypt(bcrypt.MinCost + 1)
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}

	needs, err := higher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if !needs {
		t.Fatal("expected low-cost hash to need upgrade")
	}

	needs, err = low.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if needs {
		t.Fatal("hash at configured cost must not need upgrade")
	}
}
