package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSessionMetrics(reg)

	m.Refresh(OutcomeSuccess)
	m.Refresh(OutcomeSuccess)
	m.Refresh(OutcomeFailure)
	m.ForcedLogout()
	m.Auth("login", OutcomeSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forcedLogouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authTotal.WithLabelValues("login", OutcomeSuccess)))
}

func TestSessionMetrics_NilSafe(t *testing.T) {
	var m *SessionMetrics
	assert.NotPanics(t, func() {
		m.Refresh(OutcomeSuccess)
		m.Validation(OutcomeFailure)
		m.Auth("logout", OutcomeSuccess)
		m.ForcedLogout()
		m.DataError("medications", "list")
	})
}
