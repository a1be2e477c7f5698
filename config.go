package authcore

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventhive/authcore/password"
	"github.com/eventhive/authcore/token"
)

// HashAlgorithm selects the password hashing implementation.
type HashAlgorithm string

const (
	HashBcrypt   HashAlgorithm = "bcrypt"
	HashArgon2id HashAlgorithm = "argon2id"
)

// Config holds every tunable of the core. Construct with DefaultConfig
// and override fields; Build validates the result.
type Config struct {
	Password PasswordConfig
	Session  SessionConfig
	Token    TokenConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// PasswordConfig controls hashing and the hard validation gate.
type PasswordConfig struct {
	Algorithm  HashAlgorithm
	BcryptCost int
	Argon2     password.Argon2Config

	// RequireSymbol switches the password policy to the stricter
	// requirement set that additionally demands a special character.
	RequireSymbol bool

	// MaxConcurrentHashes bounds CPU-bound hashing work so it cannot
	// starve concurrent request handling. Zero means no bound.
	MaxConcurrentHashes int
}

// SessionConfig controls session lifetime and refresh behavior.
type SessionConfig struct {
	// TTL is the lifetime granted at creation and on refresh.
	TTL time.Duration
	// RefreshThreshold: sessions with less remaining life than this are
	// extended to a full TTL by RefreshIfNeeded.
	RefreshThreshold time.Duration
}

// TokenConfig controls opaque token generation.
type TokenConfig struct {
	// Bytes of entropy per token; 32 (256 bits) is the floor.
	Bytes    int
	Encoding token.Encoding
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the internal counter registry.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the canonical defaults: bcrypt cost 12, 7-day
// sessions refreshed within the last day, 32-byte hex tokens.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Algorithm:           HashBcrypt,
			BcryptCost:          password.DefaultBcryptCost,
			Argon2:              password.DefaultArgon2Config(),
			MaxConcurrentHashes: 8,
		},
		Session: SessionConfig{
			TTL:              7 * 24 * time.Hour,
			RefreshThreshold: 24 * time.Hour,
		},
		Token: TokenConfig{
			Bytes:    32,
			Encoding: token.EncodingHex,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a full copy.
	return cfg
}

// Validate rejects configurations the core cannot operate under.
func (c *Config) Validate() error {
	switch c.Password.Algorithm {
	case HashBcrypt:
		if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
			return errors.New("config: bcrypt cost out of range")
		}
	case HashArgon2id:
	default:
		return errors.New("config: unknown password hash algorithm")
	}
	if c.Password.MaxConcurrentHashes < 0 {
		return errors.New("config: MaxConcurrentHashes cannot be negative")
	}

	if c.Session.TTL <= 0 {
		return errors.New("config: session TTL must be positive")
	}
	if c.Session.RefreshThreshold <= 0 {
		return errors.New("config: session refresh threshold must be positive")
	}
	if c.Session.RefreshThreshold >= c.Session.TTL {
		return errors.New("config: refresh threshold must be below session TTL")
	}

	if c.Token.Bytes < 32 {
		return errors.New("config: token entropy below 256-bit minimum")
	}
	switch c.Token.Encoding {
	case token.EncodingHex, token.EncodingBase62:
	default:
		return errors.New("config: unknown token encoding")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("config: audit buffer size must be positive")
	}

	return nil
}
