package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/state"
)

func TestAdaptSuccess(t *testing.T) {
	h := Adapt(func(s *state.State, r *http.Request) (response.Renderer, error) {
		return response.JSON(http.StatusOK, map[string]string{"hello": "world"}), nil
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"hello":"world"}`, rr.Body.String())
}

func TestAdaptNilRenderer(t *testing.T) {
	h := Adapt(func(s *state.State, r *http.Request) (response.Renderer, error) {
		return nil, nil
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestAdaptEchoesRequestID(t *testing.T) {
	h := Adapt(func(s *state.State, r *http.Request) (response.Renderer, error) {
		return nil, nil
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(state.RequestIDHeader, "req-789")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "req-789", rr.Header().Get(state.RequestIDHeader))
}

// End-to-end: handler fails with a plain typed error, the edge applies the
// default conversion and materializes a 500 with an empty body, and the log
// line names the cause.
func TestAdaptDefaultConversion(t *testing.T) {
	logs := observeLogs(t, zap.NewAtomicLevelAt(zap.WarnLevel))

	h := Adapt(func(s *state.State, r *http.Request) (response.Renderer, error) {
		return nil, dummyError{}
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(state.RequestIDHeader, "req-500")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Body.String())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Contains(t, entry.Message, "DummyError")
	assert.Contains(t, entry.Message, "[req-500]")
}

// End-to-end: the fixed-response mapping serves a 200 JSON page for an
// internal failure, and the pre-materialization container still exposes the
// typed cause.
func TestAdaptFixedResponseMapping(t *testing.T) {
	var seen *Error

	h := Adapt(func(s *state.State, r *http.Request) (response.Renderer, error) {
		err := MapErrWithCustomizedResponse(dummyError{}, s,
			func(s *state.State) response.Renderer {
				return response.JSON(http.StatusOK, map[string]bool{"ok": true})
			})
		seen = err.(*Error)
		return nil, err
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	require.NotNil(t, seen)
	_, ok := DowncastCause[dummyError](seen)
	assert.True(t, ok)
}

func TestAdaptStatusMapping(t *testing.T) {
	h := Adapt(func(s *state.State, r *http.Request) (response.Renderer, error) {
		return nil, MapErrWithStatus(dummyError{}, http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}
