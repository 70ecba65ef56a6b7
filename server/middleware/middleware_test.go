package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgekit/relay/state"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(state.RequestIDHeader)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(state.RequestIDHeader))
}

func TestRequestIDKeepsInbound(t *testing.T) {
	h := RequestID(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(state.RequestIDHeader, "req-keep")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "req-keep", rr.Header().Get(state.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.Handler
		expectedCode int
	}{
		{
			name:         "normal handler",
			handler:      okHandler(),
			expectedCode: http.StatusOK,
		},
		{
			name: "panicking handler",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			}),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Recovery(zap.NewNop())(tt.handler)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

			assert.Equal(t, tt.expectedCode, rr.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 1, nil)
	h := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// burst exhausted: second request is rejected through the container
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(state.RequestIDHeader))
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 1, nil)
	h := limiter.Middleware(okHandler())

	first := httptest.NewRequest("GET", "/", nil)
	first.RemoteAddr = "10.0.0.1:5555"
	second := httptest.NewRequest("GET", "/", nil)
	second.RemoteAddr = "10.0.0.2:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	// a different client has its own budget
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, second)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitReset(t *testing.T) {
	limiter := NewRateLimiter(1, 1, nil)
	h := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	limiter.Reset()

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	h := Timeout(20 * time.Millisecond)(slow)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
}

func TestTimeoutFastHandlerUnaffected(t *testing.T) {
	h := Timeout(time.Second)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTimeoutDiscardsLateHandlerWrites(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		<-release
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("too late"))
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/slow", nil))

	close(release)
	<-finished

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.NotContains(t, rr.Body.String(), "too late")
}

func TestTimeoutSkips504WhenResponseStarted(t *testing.T) {
	release := make(chan struct{})
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		<-release
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	close(release)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}

func TestLoggingPreservesResponse(t *testing.T) {
	h := Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("body"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "body", rr.Body.String())
}
