package authcore

import (
	"errors"

	"go.uber.org/zap"

	"github.com/eventhive/authcore/audit"
	"github.com/eventhive/authcore/credential"
	"github.com/eventhive/authcore/password"
	"github.com/eventhive/authcore/rbac"
	"github.com/eventhive/authcore/token"
)

// Builder assembles an AuthService. Configure during initialization,
// call Build once, and treat the result as immutable.
type Builder struct {
	config Config

	userStore    UserStore
	sessionStore SessionStore
	provider     CredentialProvider

	roles     map[rbac.Role][]rbac.Permission
	auditSink audit.Sink
	logger    *zap.Logger

	built bool
}

// New starts a builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessionStore = store
	return b
}

// WithCredentialProvider delegates credential and session handling to an
// external identity provider. The user and session stores become
// optional; SignUp, SignIn, SignOut and GetCurrentUser route through the
// provider instead.
func (b *Builder) WithCredentialProvider(p CredentialProvider) *Builder {
	b.provider = p
	return b
}

// WithRoles replaces the default role table. Every permission named in
// the table must be one the engine registers, or Build fails.
func (b *Builder) WithRoles(table map[rbac.Role][]rbac.Permission) *Builder {
	b.roles = table
	return b
}

func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every subsystem and returns
// the ready service. The builder cannot be reused.
func (b *Builder) Build() (*AuthService, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		if b.userStore == nil {
			return nil, errors.New("user store required")
		}
		if b.sessionStore == nil {
			return nil, errors.New("session store required")
		}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- RBAC ENGINE --------
	var engine *rbac.Engine
	if b.roles != nil {
		e, err := rbac.NewEngine(b.roles)
		if err != nil {
			return nil, err
		}
		engine = e
	} else {
		engine = rbac.NewDefaultEngine()
	}

	// -------- PASSWORD HASHER --------
	var hasher password.Hasher
	switch cfg.Password.Algorithm {
	case HashBcrypt:
		h, err := password.NewBcrypt(cfg.Password.BcryptCost)
		if err != nil {
			return nil, err
		}
		hasher = h
	case HashArgon2id:
		h, err := password.NewArgon2(cfg.Password.Argon2)
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	// -------- TOKEN ISSUER --------
	issuer, err := token.NewIssuer(cfg.Token.Bytes, cfg.Token.Encoding)
	if err != nil {
		return nil, err
	}

	// -------- OBSERVABILITY --------
	metrics := NewMetrics(cfg.Metrics)

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = audit.NoOpSink{}
		}
		dispatcher = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	sessions := NewSessionManager(b.sessionStore, issuer, cfg.Session, logger, metrics, dispatcher)

	policy := credential.DefaultPasswordPolicy()
	policy.RequireSymbol = cfg.Password.RequireSymbol

	var hashSem chan struct{}
	if cfg.Password.MaxConcurrentHashes > 0 {
		hashSem = make(chan struct{}, cfg.Password.MaxConcurrentHashes)
	}

	// Hash of a throwaway secret, used to equalize sign-in latency for
	// unknown emails. Computed once at build time.
	dummy, err := hasher.Hash("authcore-dummy-credential")
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:     b.userStore,
		sessions:  sessions,
		engine:    engine,
		hasher:    hasher,
		policy:    policy,
		provider:  b.provider,
		logger:    logger,
		metrics:   metrics,
		audit:     dispatcher,
		hashSem:   hashSem,
		dummyHash: dummy,
	}, nil
}
