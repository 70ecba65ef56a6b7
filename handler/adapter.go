package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/state"
)

// Func is a handler in this pipeline: it receives request state and the raw
// request, and either returns a Renderer for the success response or an
// error. Errors that are not already *Error go through the default
// conversion at the edge.
type Func func(s *state.State, r *http.Request) (response.Renderer, error)

// Adapt turns a Func into an http.Handler. It is the pipeline edge: the
// single place a handler error is materialized into a wire response. The
// request state is built here and shared with the handler and renderers.
func Adapt(fn Func) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := state.FromRequest(r)

		renderer, err := fn(s, r)
		if err != nil {
			he, ok := err.(*Error)
			if !ok {
				he = New(err)
			}
			writeResponse(w, s, he.IntoResponse(s))
			return
		}
		if renderer == nil {
			writeResponse(w, s, response.Empty(http.StatusOK))
			return
		}
		writeResponse(w, s, renderer.IntoResponse(s))
	})
}

func writeResponse(w http.ResponseWriter, s *state.State, rsp *response.Response) {
	w.Header().Set(state.RequestIDHeader, s.RequestID())
	if err := rsp.Write(w); err != nil {
		DefaultLogger.Error("failed to write response",
			zap.Error(err),
			zap.String("request_id", s.RequestID()),
		)
	}
}
