package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sg_calculations_total",
		Help: "Sample size calculations by metric family and outcome",
	}, []string{"metric", "outcome"})

	calculationRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sg_calculation_rows",
		Help:    "Number of MDE rows per successful calculation",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sg_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"route", "status"})
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument tags every request with an id, logs it and records its latency.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		httpRequestDuration.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.status)).Observe(elapsed.Seconds())
		s.logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// routeLabel keeps label cardinality bounded.
func routeLabel(path string) string {
	switch {
	case path == "/", path == "/health", path == "/metrics", path == "/api/calculate", path == "/api/presets":
		return path
	case strings.HasPrefix(path, "/api/presets/"):
		return "/api/presets/{name}"
	}
	return "other"
}
