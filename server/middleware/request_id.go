package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/edgekit/relay/state"
)

// RequestID middleware ensures every request carries a correlation ID. An
// inbound X-Request-ID is kept; otherwise a fresh UUID is generated. The ID
// is echoed in the response header and stored in the request context and
// header so state.FromRequest sees it downstream.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(state.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			r.Header.Set(state.RequestIDHeader, requestID)
		}

		w.Header().Set(state.RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
