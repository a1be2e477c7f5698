// Package idp provides a stateless CredentialProvider that issues signed
// JWTs instead of stored sessions. Plugging it into the builder swaps the
// persistence-backed session lifecycle for self-contained tokens; the
// caller-facing AuthService contract does not change.
//
// Sign-out is necessarily weaker here: a stateless token cannot be
// revoked, only outlived. Deployments that need server-side revocation
// should use the default session-backed flow instead.
package idp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventhive/authcore"
	"github.com/eventhive/authcore/ids"
	"github.com/eventhive/authcore/password"
	"github.com/eventhive/authcore/rbac"
)

var _ authcore.CredentialProvider = (*Provider)(nil)

// Config tunes the provider.
type Config struct {
	// SigningKey is the HS256 secret. Required, minimum 32 bytes.
	SigningKey []byte
	// TokenTTL is the token lifetime. Defaults to 7 days.
	TokenTTL time.Duration
	// Issuer and Audience are stamped into and verified on every token.
	Issuer   string
	Audience string
	// Leeway tolerates clock skew during validation.
	Leeway time.Duration
}

type claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Provider verifies credentials against a user store and mints HS256
// JWTs carrying the user id and role.
type Provider struct {
	cfg    Config
	users  authcore.UserStore
	hasher password.Hasher
}

func New(cfg Config, users authcore.UserStore, hasher password.Hasher) (*Provider, error) {
	if len(cfg.SigningKey) < 32 {
		return nil, errors.New("idp: signing key below 32 bytes")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("idp: invalid leeway")
	}
	if users == nil {
		return nil, errors.New("idp: user store required")
	}
	if hasher == nil {
		hasher = password.NewDefaultBcrypt()
	}
	return &Provider{cfg: cfg, users: users, hasher: hasher}, nil
}

func (p *Provider) SignUp(ctx context.Context, email, pass, name string) (*authcore.Credentials, error) {
	hash, err := p.hasher.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &authcore.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         rbac.RoleUser,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return p.issue(user)
}

func (p *Provider) SignIn(ctx context.Context, email, pass string) (*authcore.Credentials, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, authcore.ErrNotFound) {
			return nil, authcore.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := p.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, authcore.ErrInvalidCredentials
	}
	return p.issue(user)
}

// SignOut is a no-op: the token stays valid until its expiry.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	return nil
}

func (p *Provider) Validate(ctx context.Context, token string) (*authcore.User, error) {
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(p.cfg.Leeway),
	}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return p.cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authcore.ErrSessionExpired
		}
		return nil, authcore.ErrSessionNotFound
	}

	user, err := p.users.GetByID(ctx, c.UID)
	if err != nil {
		if errors.Is(err, authcore.ErrNotFound) {
			return nil, authcore.ErrSessionNotFound
		}
		return nil, err
	}
	return user, nil
}

func (p *Provider) issue(user *authcore.User) (*authcore.Credentials, error) {
	now := time.Now().UTC()
	expires := now.Add(p.cfg.TokenTTL)

	c := claims{
		UID:  user.ID,
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        ids.New(),
		},
	}
	if p.cfg.Audience != "" {
		c.Audience = jwt.ClaimStrings{p.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &authcore.Credentials{
		User:      user,
		Token:     signed,
		ExpiresAt: expires,
	}, nil
}
