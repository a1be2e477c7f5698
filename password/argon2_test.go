package password

import (
	"strings"
	"testing"
)

func fastArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Argon2Config)
	}{
		{"memory", func(c *Argon2Config) { c.Memory = 1024 }},
		{"time", func(c *Argon2Config) { c.Time = 0 }},
		{"parallelism", func(c *Argon2Config) { c.Parallelism = 0 }},
		{"salt", func(c *Argon2Config) { c.SaltLength = 8 }},
		{"key", func(c *Argon2Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := fastArgon2Config()
			tc.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("expected config rejection")
			}
		})
	}
}

func TestArgon2HashVerify(t *testing.T) {
	h, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	encoded, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("expected PHC format, got %q", encoded)
	}

	ok, err := h.Verify("correct-horse", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify of correct password: ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong", encoded)
	if err != nil {
		t.Fatalf("Verify of wrong password returned error: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestArgon2HashesAreSalted(t *testing.T) {
	h, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of one password must differ")
	}
}

func TestArgon2VerifyMalformed(t *testing.T) {
	h, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	} {
		if _, err := h.Verify("x", encoded); err == nil {
			t.Fatalf("expected parse error for %q", encoded)
		}
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	encoded, err := weak.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	needs, err := weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if needs {
		t.Fatal("hash at configured parameters must not need upgrade")
	}

	stronger, err := NewArgon2(DefaultArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	needs, err = stronger.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if !needs {
		t.Fatal("expected weak hash to need upgrade under stronger config")
	}
}

func TestArgon2VerifyCrossConfig(t *testing.T) {
	// Parameters ride in the PHC string, so a hasher with different
	// configured costs still verifies an existing hash.
	weak, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	encoded, err := weak.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	stronger, err := NewArgon2(DefaultArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	ok, err := stronger.Verify("correct-horse", encoded)
	if err != nil || !ok {
		t.Fatalf("cross-config verify: ok=%v err=%v", ok, err)
	}
}
