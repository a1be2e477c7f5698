// Package password provides one-way, salted password hashing. Bcrypt with
// cost 12 is the default; an argon2id hasher is available for deployments
// that prefer memory-hard hashing. Both produce self-describing encoded
// hashes, so verification never needs external parameters.
package password

// Hasher hashes and verifies passwords. Implementations must be safe for
// concurrent use.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches the encoded hash. A mismatch
	// is (false, nil); an error means the hash could not be evaluated.
	Verify(password, encoded string) (bool, error)
	// NeedsUpgrade reports whether the encoded hash was produced with
	// weaker parameters than the hasher is configured with.
	NeedsUpgrade(encoded string) (bool, error)
}
