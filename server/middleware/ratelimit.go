package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/edgekit/relay/handler"
	"github.com/edgekit/relay/server/metrics"
)

// ErrRateLimited is the cause stored in the error container when a request
// is rejected by the rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiter implements per-IP request rate limiting. Rejected requests
// are answered with a 429 produced through the status mapping combinator,
// so the rejection shows up in the handler error log like any other error.
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	metrics  *metrics.Metrics
}

// NewRateLimiter creates a rate limiter allowing rps requests per second
// with the given burst per client IP. metrics may be nil.
func NewRateLimiter(rps float64, burst int, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		metrics:  m,
	}
}

func (l *RateLimiter) getOrCreate(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.visitors[ip] = limiter
	}
	return limiter
}

// Reset clears all per-client limiters. Only used for testing.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visitors = make(map[string]*rate.Limiter)
}

// Middleware returns the rate limiting middleware.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx != -1 {
			ip = ip[:idx]
		}

		if !l.getOrCreate(ip).Allow() {
			if l.metrics != nil {
				l.metrics.RateLimitHits.WithLabelValues(ip).Inc()
			}
			writeError(w, r, handler.MapErrWithStatus(ErrRateLimited, http.StatusTooManyRequests))
			return
		}

		next.ServeHTTP(w, r)
	})
}
