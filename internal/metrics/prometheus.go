package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcome labels
const (
	StatusOK              = "ok"
	StatusQueryError      = "query_error"
	StatusConnectionError = "connection_error"
)

// PrometheusMetrics wraps the collectors for session and query accounting
type PrometheusMetrics struct {
	registry *prometheus.Registry

	sessionsOpened prometheus.Counter
	sessionsClosed prometheus.Counter
	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	rowsReturned   prometheus.Histogram
}

var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	mu          sync.RWMutex
	promMetrics *PrometheusMetrics
)

// InitPrometheus installs a fresh registry. Calling it again replaces the previous one.
func InitPrometheus(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &PrometheusMetrics{
		registry: registry,

		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total database sessions opened",
		}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Total database sessions closed",
		}),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total aggregation queries by outcome",
			},
			[]string{"status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Aggregation query latency including session setup",
				Buckets:   defaultBuckets,
			},
			[]string{"status"},
		),
		rowsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rows_returned",
			Help:      "Rows returned per successful query",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	registry.MustRegister(
		pm.sessionsOpened,
		pm.sessionsClosed,
		pm.queriesTotal,
		pm.queryDuration,
		pm.rowsReturned,
	)

	mu.Lock()
	promMetrics = pm
	mu.Unlock()
	return pm
}

func current() *PrometheusMetrics {
	mu.RLock()
	defer mu.RUnlock()
	return promMetrics
}

func SessionOpened() {
	if pm := current(); pm != nil {
		pm.sessionsOpened.Inc()
	}
}

func SessionClosed() {
	if pm := current(); pm != nil {
		pm.sessionsClosed.Inc()
	}
}

// RecordQuery records one aggregation query. rows is ignored unless status is StatusOK.
func RecordQuery(status string, d time.Duration, rows int) {
	pm := current()
	if pm == nil {
		return
	}
	pm.queriesTotal.WithLabelValues(status).Inc()
	pm.queryDuration.WithLabelValues(status).Observe(d.Seconds())
	if status == StatusOK {
		pm.rowsReturned.Observe(float64(rows))
	}
}

// Handler serves the registry, or 404 when metrics were never initialized.
func Handler() http.Handler {
	pm := current()
	if pm == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}
