package authcore

import "sync/atomic"

// MetricID identifies one internal counter.
type MetricID uint16

const (
	MetricSignUpSuccess MetricID = iota
	MetricSignUpDuplicate
	MetricSignUpInvalid
	MetricSignInSuccess
	MetricSignInFailure
	MetricSignOut
	MetricSessionCreated
	MetricSessionValidated
	MetricSessionExpiredOnRead
	MetricSessionRefreshed
	MetricSessionExtended
	MetricSessionRevoked
	MetricSessionsRevokedForUser
	MetricSessionsCleaned
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricAccountDeleted
	MetricAccessDenied
	metricIDCount
)

// MetricName returns the stable exposition name for a counter.
func MetricName(id MetricID) string {
	switch id {
	case MetricSignUpSuccess:
		return "authcore_signup_success_total"
	case MetricSignUpDuplicate:
		return "authcore_signup_duplicate_total"
	case MetricSignUpInvalid:
		return "authcore_signup_invalid_total"
	case MetricSignInSuccess:
		return "authcore_signin_success_total"
	case MetricSignInFailure:
		return "authcore_signin_failure_total"
	case MetricSignOut:
		return "authcore_signout_total"
	case MetricSessionCreated:
		return "authcore_session_created_total"
	case MetricSessionValidated:
		return "authcore_session_validated_total"
	case MetricSessionExpiredOnRead:
		return "authcore_session_expired_on_read_total"
	case MetricSessionRefreshed:
		return "authcore_session_refreshed_total"
	case MetricSessionExtended:
		return "authcore_session_extended_total"
	case MetricSessionRevoked:
		return "authcore_session_revoked_total"
	case MetricSessionsRevokedForUser:
		return "authcore_sessions_revoked_for_user_total"
	case MetricSessionsCleaned:
		return "authcore_sessions_cleaned_total"
	case MetricPasswordChangeSuccess:
		return "authcore_password_change_success_total"
	case MetricPasswordChangeInvalidOld:
		return "authcore_password_change_invalid_old_total"
	case MetricAccountDeleted:
		return "authcore_account_deleted_total"
	case MetricAccessDenied:
		return "authcore_access_denied_total"
	default:
		return "authcore_unknown"
	}
}

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free counter registry. A nil *Metrics is valid and
// counts nothing.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates the counter registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Add adds n to a counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}

// MetricIDs returns every counter ID in registration order.
func MetricIDs() []MetricID {
	out := make([]MetricID, 0, int(metricIDCount))
	for id := MetricID(0); id < metricIDCount; id++ {
		out = append(out, id)
	}
	return out
}
