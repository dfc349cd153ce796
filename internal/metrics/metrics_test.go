package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCommandCountsByStatus(t *testing.T) {
	m := New()
	m.ObserveCommand("queryBackend", 10*time.Millisecond, nil)
	m.ObserveCommand("queryBackend", 10*time.Millisecond, errors.New("boom"))
	m.ObserveCommand("queryBackend", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("queryBackend", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("queryBackend", "error")))
}

func TestSessionGauge(t *testing.T) {
	m := New()
	m.SetSessionActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionActive))
	m.SetSessionActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.sessionActive))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCommand("x", time.Second, nil)
	m.ObserveBackend(OutcomeOK)
	m.ObserveOversizedAudio()
	m.SetSessionActive(true)
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveBackend(OutcomeTransportError)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rr.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `nexiatray_backend_requests_total{outcome="transport_error"} 1`))
}
