// Package state provides the per-request context bag handed to handlers
// and renderers. It is read-only after construction: handlers running in
// the same request chain may share it freely without locking.
package state

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader is the canonical header carrying the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// State carries per-request metadata: a correlation ID, the inbound
// headers, and the remote address. Handlers and renderers read from it for
// logging correlation and content negotiation; nothing writes to it after
// construction.
type State struct {
	requestID  string
	header     http.Header
	remoteAddr string
}

// New creates a State with the given correlation ID and headers.
// A nil header is replaced with an empty one so accessors never see nil.
func New(requestID string, header http.Header) *State {
	if header == nil {
		header = http.Header{}
	}
	return &State{requestID: requestID, header: header}
}

// FromRequest builds a State from an inbound request. The correlation ID is
// taken from the X-Request-ID header; if absent, a fresh UUID is generated.
func FromRequest(r *http.Request) *State {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &State{
		requestID:  requestID,
		header:     r.Header,
		remoteAddr: r.RemoteAddr,
	}
}

// RequestID returns the correlation ID for this request.
func (s *State) RequestID() string {
	return s.requestID
}

// Header returns the inbound request headers.
func (s *State) Header() http.Header {
	return s.header
}

// RemoteAddr returns the client address as seen by the server.
func (s *State) RemoteAddr() string {
	return s.remoteAddr
}

// Accepts reports whether the request's Accept or Content-Type header
// mentions the given MIME type. It is a negotiation hint for renderers that
// vary the response body by requested format.
func (s *State) Accepts(mime string) bool {
	accept := s.header.Get("Accept")
	if accept == "" {
		accept = s.header.Get("Content-Type")
	}
	return strings.Contains(accept, mime)
}
