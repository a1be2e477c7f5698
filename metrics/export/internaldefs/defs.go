// Package internaldefs holds the shared counter definitions used by both
// exporter bridges. Internal naming only; not part of the public API.
package internaldefs

import (
	"github.com/eventhive/authcore"
)

// CounterDef ties a counter ID to its exposition name and help text.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricSignUpSuccess, Help: "Successful account registrations."},
	{ID: authcore.MetricSignUpDuplicate, Help: "Registrations rejected as duplicate email."},
	{ID: authcore.MetricSignUpInvalid, Help: "Registrations rejected by validation."},
	{ID: authcore.MetricSignInSuccess, Help: "Successful sign-ins."},
	{ID: authcore.MetricSignInFailure, Help: "Failed sign-in attempts."},
	{ID: authcore.MetricSignOut, Help: "Sign-out operations."},
	{ID: authcore.MetricSessionCreated, Help: "Created sessions."},
	{ID: authcore.MetricSessionValidated, Help: "Successful session validations."},
	{ID: authcore.MetricSessionExpiredOnRead, Help: "Sessions found expired and retired during validation."},
	{ID: authcore.MetricSessionRefreshed, Help: "Sessions extended by threshold refresh."},
	{ID: authcore.MetricSessionExtended, Help: "Sessions extended explicitly."},
	{ID: authcore.MetricSessionRevoked, Help: "Single-session revocations."},
	{ID: authcore.MetricSessionsRevokedForUser, Help: "Sessions removed by per-user bulk revocation."},
	{ID: authcore.MetricSessionsCleaned, Help: "Sessions removed by batch cleanup."},
	{ID: authcore.MetricPasswordChangeSuccess, Help: "Successful password changes."},
	{ID: authcore.MetricPasswordChangeInvalidOld, Help: "Password changes rejected for a wrong current password."},
	{ID: authcore.MetricAccountDeleted, Help: "Deleted accounts."},
	{ID: authcore.MetricAccessDenied, Help: "Authorization checks that denied access."},
}

func init() {
	for i := range CounterDefs {
		CounterDefs[i].Name = authcore.MetricName(CounterDefs[i].ID)
	}
}

// AuditDroppedName is the exposition name for dispatcher backpressure.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp describes the backpressure counter.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
