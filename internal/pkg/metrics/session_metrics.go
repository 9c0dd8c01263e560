package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeMissing = "missing"
)

// SessionMetrics counts session lifecycle events
type SessionMetrics struct {
	refreshTotal    *prometheus.CounterVec
	validationTotal *prometheus.CounterVec
	authTotal       *prometheus.CounterVec
	forcedLogouts   prometheus.Counter
	dataErrors      *prometheus.CounterVec
}

// NewSessionMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthmate",
				Subsystem: "session",
				Name:      "token_refresh_total",
				Help:      "Access token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		validationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthmate",
				Subsystem: "session",
				Name:      "validation_total",
				Help:      "Session validations by outcome",
			},
			[]string{"outcome"},
		),
		authTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthmate",
				Subsystem: "session",
				Name:      "auth_total",
				Help:      "Login, register and logout calls by outcome",
			},
			[]string{"operation", "outcome"},
		),
		forcedLogouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "healthmate",
				Subsystem: "session",
				Name:      "forced_logout_total",
				Help:      "Sessions terminated after an unrecoverable auth failure",
			},
		),
		dataErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthmate",
				Subsystem: "data",
				Name:      "request_errors_total",
				Help:      "Failed data requests by resource and operation",
			},
			[]string{"resource", "operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.refreshTotal, m.validationTotal, m.authTotal, m.forcedLogouts, m.dataErrors)
	}
	return m
}

// Refresh records a refresh attempt
func (m *SessionMetrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

// Validation records a validation
func (m *SessionMetrics) Validation(outcome string) {
	if m == nil {
		return
	}
	m.validationTotal.WithLabelValues(outcome).Inc()
}

// Auth records a login, register or logout
func (m *SessionMetrics) Auth(operation, outcome string) {
	if m == nil {
		return
	}
	m.authTotal.WithLabelValues(operation, outcome).Inc()
}

// ForcedLogout records a forced logout
func (m *SessionMetrics) ForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}

// DataError records a failed data request
func (m *SessionMetrics) DataError(resource, operation string) {
	if m == nil {
		return
	}
	m.dataErrors.WithLabelValues(resource, operation).Inc()
}
