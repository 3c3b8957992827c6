package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyFunc func(ctx context.Context) error

func (f readyFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTick("analysis", OutcomeUpdate)
	m.PollStarted("analysis")
	m.PollStopped("analysis", OutcomeCompleted, time.Second)
	m.ObserveRequest("progress", "200")
	m.ObserveRateLimitWait(time.Millisecond)
}

func TestMetrics_PollLifecycle(t *testing.T) {
	m := NewMetricsForTesting()

	m.PollStarted("analysis")
	m.ObserveTick("analysis", OutcomeUpdate)
	m.ObserveTick("analysis", OutcomeTransient)
	m.ObserveTick("analysis", OutcomeCompleted)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivePolls.WithLabelValues("analysis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollTicks.WithLabelValues("analysis", OutcomeTransient)))

	m.PollStopped("analysis", OutcomeCompleted, 4*time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActivePolls.WithLabelValues("analysis")))
}

func TestServer_Healthz(t *testing.T) {
	s := NewServer(":0", nil, discardLogger())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ReadyzReportsBackendFailure(t *testing.T) {
	s := NewServer(":0", readyFunc(func(ctx context.Context) error {
		return errors.New("backend unreachable")
	}), discardLogger())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend unreachable")
}

func TestServer_ReadyzOK(t *testing.T) {
	s := NewServer(":0", readyFunc(func(ctx context.Context) error { return nil }), discardLogger())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
