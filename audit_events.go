package authcore

// Audit event types emitted by the service and the session manager.
const (
	auditEventSignUp             = "auth.signup"
	auditEventSignIn             = "auth.signin"
	auditEventSignOut            = "auth.signout"
	auditEventPasswordChanged    = "auth.password_changed"
	auditEventAccountDeleted     = "auth.account_deleted"
	auditEventSessionCreated     = "session.created"
	auditEventSessionRevoked     = "session.revoked"
	auditEventSessionsRevokedAll = "session.revoked_all"
	auditEventSessionsCleaned    = "session.cleanup"
)
