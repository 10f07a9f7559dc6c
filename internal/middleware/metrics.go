package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "margdarshan_api_requests_total",
		Help: "Total number of API requests",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "margdarshan_api_request_duration_seconds",
		Help:    "Duration of API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	aiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "margdarshan_ai_requests_total",
		Help: "Total number of text-generation requests",
	}, []string{"endpoint", "status"})

	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "margdarshan_ai_request_duration_seconds",
		Help:    "Duration of text-generation requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "margdarshan_cache_hits_total",
		Help: "Total number of AI cache hits",
	}, []string{"endpoint"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "margdarshan_cache_misses_total",
		Help: "Total number of AI cache misses",
	}, []string{"endpoint"})

	rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "margdarshan_rate_limit_exceeded_total",
		Help: "Total number of rate limit rejections",
	}, []string{"endpoint"})
)

// Metrics provides methods to record service metrics.
type Metrics struct{}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordAPIRequest(endpoint, status string, duration time.Duration) {
	apiRequests.WithLabelValues(endpoint, status).Inc()
	apiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordAIRequest(endpoint, status string, duration time.Duration) {
	aiRequests.WithLabelValues(endpoint, status).Inc()
	aiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit(endpoint string) {
	cacheHits.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RecordCacheMiss(endpoint string) {
	cacheMisses.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RecordRateLimitExceeded(endpoint string) {
	rateLimitExceeded.WithLabelValues(endpoint).Inc()
}

// StartMetricsServer starts the metrics HTTP server.
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
