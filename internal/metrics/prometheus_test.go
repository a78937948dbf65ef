package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecording(t *testing.T) {
	pm := InitPrometheus("test")

	SessionOpened()
	SessionOpened()
	SessionClosed()
	RecordQuery(StatusOK, 20*time.Millisecond, 2)
	RecordQuery(StatusQueryError, time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.sessionsOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.sessionsClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.queriesTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.queriesTotal.WithLabelValues(StatusQueryError)))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_sessions_opened_total 2")
	assert.Contains(t, rec.Body.String(), `test_queries_total{status="ok"} 1`)
}

func TestUninitializedIsNoop(t *testing.T) {
	mu.Lock()
	promMetrics = nil
	mu.Unlock()

	assert.NotPanics(t, func() {
		SessionOpened()
		SessionClosed()
		RecordQuery(StatusConnectionError, time.Second, 0)
	})

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
