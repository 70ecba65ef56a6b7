// Package middleware provides the HTTP middleware stack for the serving
// pipeline. Rejections raised here (rate limits, panics, timeouts) go
// through the same handler error container as handler failures, so every
// error response is produced and logged in exactly one place.
package middleware

import (
	"net/http"

	"github.com/edgekit/relay/handler"
	"github.com/edgekit/relay/state"
)

// writeError adapts err into a handler error container and materializes it
// for requests rejected before they reach a handler.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	s := state.FromRequest(r)
	he, ok := err.(*handler.Error)
	if !ok {
		he = handler.New(err)
	}
	w.Header().Set(state.RequestIDHeader, s.RequestID())
	_ = he.IntoResponse(s).Write(w)
}
