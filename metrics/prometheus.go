package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_remote_requests_total",
			Help: "Calls to the remote catalog API by operation and status class.",
		},
		[]string{"operation", "status"},
	)
	remoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_remote_request_duration_seconds",
			Help:    "Latency of calls to the remote catalog API.",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"operation"},
	)
	productsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_products_total",
			Help: "Products processed by sync runs by outcome.",
		},
		[]string{"connection", "result"},
	)
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_runs_total",
			Help: "Finished sync runs by terminal status.",
		},
		[]string{"connection", "status"},
	)
	activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_sync_active_runs",
			Help: "Sync runs currently in progress.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(remoteRequestsTotal)
	prometheus.MustRegister(remoteRequestDuration)
	prometheus.MustRegister(productsTotal)
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(activeRuns)
}

// RecordRequest записывает метрики для HTTP-запроса.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordRemoteCall counts one call to the remote catalog. statusCode 0 means no response.
func RecordRemoteCall(operation string, statusCode int, duration time.Duration) {
	remoteRequestsTotal.WithLabelValues(operation, classifyStatus(statusCode)).Inc()
	remoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordProducts(connectionID string, synced, errors int) {
	if synced > 0 {
		productsTotal.WithLabelValues(connectionID, "synced").Add(float64(synced))
	}
	if errors > 0 {
		productsTotal.WithLabelValues(connectionID, "error").Add(float64(errors))
	}
}

func RunStarted() {
	activeRuns.Inc()
}

func RunFinished(connectionID, status string) {
	activeRuns.Dec()
	runsTotal.WithLabelValues(connectionID, status).Inc()
}

// classifyStatus классифицирует HTTP-статус код в строку.
func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
