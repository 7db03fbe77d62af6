// Package metrics exposes Prometheus counters for login, refresh and
// multi-factor outcomes. All methods are nil-receiver safe so callers can
// leave instrumentation unconfigured.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counter set registered against a caller-supplied
// Registerer.
type Metrics struct {
	loginSuccess  prometheus.Counter
	loginFailure  prometheus.Counter
	refreshOK     prometheus.Counter
	refreshFailed prometheus.Counter
	codesSent     prometheus.Counter
	codeAccepted  prometheus.Counter
	codeRejected  prometheus.Counter
	tokensIssued  *prometheus.CounterVec
}

// New registers the webauth counter set on reg and returns it. Passing
// prometheus.DefaultRegisterer is fine for single-instance hosts; tests
// should pass their own registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_login_success_total",
			Help: "Successful logins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_login_failure_total",
			Help: "Rejected logins (unknown principal, bad credentials, not permitted).",
		}),
		refreshOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_refresh_success_total",
			Help: "Successful access-token refreshes.",
		}),
		refreshFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_refresh_failure_total",
			Help: "Failed access-token refreshes.",
		}),
		codesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_validation_codes_sent_total",
			Help: "Challenge codes dispatched to principals.",
		}),
		codeAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_validation_code_accepted_total",
			Help: "Challenge codes accepted and consumed.",
		}),
		codeRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webauth_validation_code_rejected_total",
			Help: "Challenge codes rejected.",
		}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webauth_tokens_issued_total",
			Help: "Token records issued, by granted role.",
		}, []string{"role"}),
	}
	reg.MustRegister(
		m.loginSuccess, m.loginFailure,
		m.refreshOK, m.refreshFailed,
		m.codesSent, m.codeAccepted, m.codeRejected,
		m.tokensIssued,
	)
	return m
}

// LoginSuccess increments the successful-login counter.
func (m *Metrics) LoginSuccess() {
	if m != nil {
		m.loginSuccess.Inc()
	}
}

// LoginFailure increments the rejected-login counter.
func (m *Metrics) LoginFailure() {
	if m != nil {
		m.loginFailure.Inc()
	}
}

// RefreshSuccess increments the successful-refresh counter.
func (m *Metrics) RefreshSuccess() {
	if m != nil {
		m.refreshOK.Inc()
	}
}

// RefreshFailure increments the failed-refresh counter.
func (m *Metrics) RefreshFailure() {
	if m != nil {
		m.refreshFailed.Inc()
	}
}

// CodeSent increments the dispatched-code counter.
func (m *Metrics) CodeSent() {
	if m != nil {
		m.codesSent.Inc()
	}
}

// CodeAccepted increments the accepted-code counter.
func (m *Metrics) CodeAccepted() {
	if m != nil {
		m.codeAccepted.Inc()
	}
}

// CodeRejected increments the rejected-code counter.
func (m *Metrics) CodeRejected() {
	if m != nil {
		m.codeRejected.Inc()
	}
}

// TokenIssued increments the issued-token counter for the given role tag.
func (m *Metrics) TokenIssued(role string) {
	if m != nil {
		m.tokensIssued.WithLabelValues(role).Inc()
	}
}
