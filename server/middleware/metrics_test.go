package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/edgekit/relay/server/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	m := metrics.NewMetrics()

	h := PrometheusMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/missing", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HandlerErrors.WithLabelValues("404")))
}

func TestPrometheusMetricsSuccessNotCountedAsError(t *testing.T) {
	m := metrics.NewMetrics()

	h := PrometheusMetrics(m)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/ok", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/ok", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HandlerErrors.WithLabelValues("200")))
}
