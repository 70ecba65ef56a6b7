package handler

import (
	"go.uber.org/zap"

	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/state"
)

// MapErrWithStatus attaches a status code to the error case of a handler
// result. A nil err stays nil. An error that is already an *Error gets its
// status overridden in place, keeping any custom body it carries; any other
// error is converted in a single step, never passing through the default
// 500 assignment.
func MapErrWithStatus(err error, status int) error {
	switch cause := err.(type) {
	case nil:
		return nil
	case *Error:
		DefaultLogger.Debug("overriding HandlerError status",
			zap.Int("status", status),
			zap.String("error", cause.Error()),
		)
		cause.status = status
		return cause
	default:
		DefaultLogger.Debug("converting error to HandlerError",
			zap.Int("status", status),
			zap.String("error", cause.Error()),
		)
		return &Error{status: status, cause: cause}
	}
}

// MapErrToCustomizedResponse converts the error case using a closure that
// observes the original cause and decides on a response payload, then hands
// the cause back for re-boxing. The resulting Error's status mirrors the
// rendered response's status. f is called at most once; a nil err stays nil
// and f is not called.
func MapErrToCustomizedResponse(err error, s *state.State, f func(error, *state.State) (error, response.Renderer)) error {
	if err == nil {
		return nil
	}
	DefaultLogger.Debug("mapping error to customized response",
		zap.String("error", err.Error()),
	)
	cause, renderer := f(err, s)
	body := renderer.IntoResponse(s)
	return &Error{
		status:     body.Status,
		cause:      cause,
		customBody: body,
	}
}

// MapErrWithCustomizedResponse converts the error case and attaches a
// response body that does not depend on the error's content: f only sees
// the request state. Used when the same page should be served regardless of
// cause. A nil err stays nil and f is not called.
func MapErrWithCustomizedResponse(err error, s *state.State, f func(*state.State) response.Renderer) error {
	if err == nil {
		return nil
	}
	DefaultLogger.Debug("mapping error with customized response",
		zap.String("error", err.Error()),
	)
	converted := New(err)
	converted.SetCustomizedResponseBody(s, f)
	return converted
}
