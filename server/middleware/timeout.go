package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/edgekit/relay/handler"
)

// timeoutWriter guards the underlying writer between the handler goroutine
// and the timeout branch. Once the deadline fires the handler is cut off:
// its writes are discarded so late bytes cannot follow the 504 body.
type timeoutWriter struct {
	w http.ResponseWriter

	mu       sync.Mutex
	timedOut bool
	wrote    bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.w.Header() }

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return
	}
	tw.wrote = true
	tw.w.WriteHeader(status)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.wrote = true
	return tw.w.Write(b)
}

// markTimedOut cuts the handler off and reports whether the 504 may be
// written. It returns false when the handler already started a response.
func (tw *timeoutWriter) markTimedOut() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.timedOut = true
	return !tw.wrote
}

// Timeout middleware bounds request processing time. When the deadline
// passes before the handler writes anything, a 504 is served through the
// handler error container with the deadline error as cause; anything the
// handler writes after that point is discarded.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{w: w}
			done := make(chan struct{})

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if tw.markTimedOut() {
					cause := fmt.Errorf("request exceeded %s: %w", timeout, ctx.Err())
					writeError(w, r, handler.MapErrWithStatus(cause, http.StatusGatewayTimeout))
				}
			}
		})
	}
}
