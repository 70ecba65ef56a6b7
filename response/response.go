// Package response defines the wire response value produced at the edge of
// the handler pipeline, together with the Renderer capability that turns
// arbitrary values into responses against request state.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/edgekit/relay/state"
)

// Response is a fully-formed wire response: status, headers and body. It is
// the terminal artifact handed to the transport layer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Empty creates a response carrying only a status code and no body.
func Empty(status int) *Response {
	return &Response{
		Status: status,
		Header: http.Header{},
	}
}

// Write flushes the response to the transport. Headers are written first,
// then the status line, then the body.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(r.Status)
	if len(r.Body) == 0 {
		return nil
	}
	if _, err := w.Write(r.Body); err != nil {
		return fmt.Errorf("write response body: %w", err)
	}
	return nil
}

// Renderer is the capability of producing a full response given request
// state. Handlers return Renderers; the pipeline edge materializes them.
type Renderer interface {
	IntoResponse(s *state.State) *Response
}

// Raw renders a pre-encoded body with an explicit status and content type.
type Raw struct {
	Status      int
	ContentType string
	Body        []byte
}

// IntoResponse implements Renderer.
func (r Raw) IntoResponse(_ *state.State) *Response {
	rsp := Empty(r.Status)
	if r.ContentType != "" {
		rsp.Header.Set("Content-Type", r.ContentType)
	}
	rsp.Body = r.Body
	return rsp
}

// JSON returns a Renderer that encodes v as an application/json body with
// the given status. Encoding failures degrade to a 500 empty response; the
// value handed in is expected to be encodable.
func JSON(status int, v interface{}) Renderer {
	return jsonRenderer{status: status, v: v}
}

type jsonRenderer struct {
	status int
	v      interface{}
}

func (j jsonRenderer) IntoResponse(_ *state.State) *Response {
	body, err := json.Marshal(j.v)
	if err != nil {
		return Empty(http.StatusInternalServerError)
	}
	rsp := Empty(j.status)
	rsp.Header.Set("Content-Type", "application/json")
	rsp.Body = body
	return rsp
}

// Text returns a Renderer producing a text/plain body with the given status.
func Text(status int, body string) Renderer {
	return Raw{
		Status:      status,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(body),
	}
}
