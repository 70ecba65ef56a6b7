// Package handler provides the error adaptation layer between handler code
// and the HTTP transport. Handlers fail with any error value; the Error
// container boxes it with an HTTP status code and an optional pre-rendered
// response body, and the pipeline edge materializes it into a wire response
// exactly once. The original typed cause is never discarded, so callers can
// still downcast and inspect it after conversion.
//
// Basic usage:
//
//	func lookup(s *state.State, r *http.Request) (response.Renderer, error) {
//		doc, err := store.Get(r.URL.Path)
//		if err != nil {
//			return nil, handler.MapErrWithStatus(err, http.StatusNotFound)
//		}
//		return response.JSON(http.StatusOK, doc), nil
//	}
package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/state"
)

// DefaultLogger is the zap logger used by the package for conversion traces
// and materialization records. It is initialized to a production
// configuration but can be overridden with SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger replaces the package logger. A nil logger is ignored so logging
// cannot be disabled by accident.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// Error describes a failure which occurred during handler execution and
// carries everything needed to generate an HTTP response for it: a status
// code (500 unless mapped), the original cause, and optionally a fully
// customized response body.
//
// When the custom body is set it is authoritative: the status field is kept
// in sync with it by every construction site that sets both. Overriding the
// status afterwards (WithStatus, MapErrWithStatus on an already-converted
// Error) does not clear the body, so composing the two out of order can
// produce a body whose status disagrees with Status. See the pinned
// behavior in the package tests.
type Error struct {
	status     int
	cause      error
	customBody *response.Response
	consumed   bool
}

// New converts any error into an *Error with status 500 and no custom
// body. This is the default conversion exercised by plain early returns.
func New(cause error) *Error {
	DefaultLogger.Debug("converting error to HandlerError",
		zap.String("error", cause.Error()),
	)
	return &Error{
		status: http.StatusInternalServerError,
		cause:  cause,
	}
}

// Status returns the HTTP status code associated with this Error.
func (e *Error) Status() int {
	return e.status
}

// WithStatus returns a copy of the Error with the status code overridden.
// A previously attached custom body is left untouched.
func (e *Error) WithStatus(status int) *Error {
	copied := *e
	copied.status = status
	return &copied
}

// SetCustomizedResponseBody renders f against the request state, stores the
// result as the custom response body, and synchronizes the status code with
// the rendered response. The stored body is served verbatim on
// materialization.
func (e *Error) SetCustomizedResponseBody(s *state.State, f func(*state.State) response.Renderer) {
	body := f(s).IntoResponse(s)
	e.status = body.Status
	e.customBody = body
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("handler error (status %d): %v", e.status, e.cause)
}

// Unwrap exposes the cause for errors.Is / errors.Unwrap chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// DowncastCause returns the stored cause as E if and only if its dynamic
// type is exactly E. No unwrapping or coercion across wrapped errors takes
// place; use a pointer type for E to mutate the cause in place.
func DowncastCause[E error](e *Error) (E, bool) {
	cause, ok := e.cause.(E)
	return cause, ok
}

// IntoResponse consumes the Error and produces the wire response: the
// custom body verbatim if one was attached, else an empty response carrying
// only the status code. One warning record is emitted per materialized
// Error. Materializing an Error twice is a programming defect and panics.
func (e *Error) IntoResponse(s *state.State) *response.Response {
	if e.consumed {
		panic("handler.Error must not be materialized more than once")
	}
	e.consumed = true

	phrase := http.StatusText(e.status)
	if phrase == "" {
		phrase = "(unregistered)"
	}
	DefaultLogger.Warn(fmt.Sprintf("[%s] HandlerError is generating %d %s response: %v",
		s.RequestID(), e.status, phrase, e.cause))

	if e.customBody != nil {
		return e.customBody
	}
	return response.Empty(e.status)
}
