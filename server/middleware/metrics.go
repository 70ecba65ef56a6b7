package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edgekit/relay/server/metrics"
)

// PrometheusMetrics middleware records HTTP metrics using Prometheus.
func PrometheusMetrics(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := NewResponseWriter(w)

			next.ServeHTTP(rw, r)

			status := rw.Status()
			m.RequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())

			if status >= 400 {
				m.HandlerErrors.WithLabelValues(strconv.Itoa(status)).Inc()
			}
		})
	}
}
