package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgekit/relay/state"
)

func TestEmpty(t *testing.T) {
	rsp := Empty(http.StatusNotFound)
	if rsp.Status != http.StatusNotFound {
		t.Errorf("Status = %v, want 404", rsp.Status)
	}
	if len(rsp.Body) != 0 {
		t.Errorf("expected empty body, got %q", rsp.Body)
	}
	if rsp.Header == nil {
		t.Error("Header should never be nil")
	}
}

func TestJSONRenderer(t *testing.T) {
	s := state.New("req-1", nil)

	rsp := JSON(http.StatusOK, map[string]bool{"ok": true}).IntoResponse(s)
	if rsp.Status != http.StatusOK {
		t.Errorf("Status = %v, want 200", rsp.Status)
	}
	if got := rsp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %v", got)
	}
	if string(rsp.Body) != `{"ok":true}` {
		t.Errorf("Body = %q", rsp.Body)
	}
}

func TestJSONRendererUnencodable(t *testing.T) {
	s := state.New("req-1", nil)

	rsp := JSON(http.StatusOK, func() {}).IntoResponse(s)
	if rsp.Status != http.StatusInternalServerError {
		t.Errorf("Status = %v, want 500 on encode failure", rsp.Status)
	}
}

func TestTextRenderer(t *testing.T) {
	s := state.New("req-1", nil)

	rsp := Text(http.StatusTeapot, "short and stout").IntoResponse(s)
	if rsp.Status != http.StatusTeapot {
		t.Errorf("Status = %v, want 418", rsp.Status)
	}
	if got := rsp.Header.Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %v", got)
	}
	if string(rsp.Body) != "short and stout" {
		t.Errorf("Body = %q", rsp.Body)
	}
}

func TestRawRenderer(t *testing.T) {
	s := state.New("req-1", nil)

	rsp := Raw{Status: http.StatusAccepted, ContentType: "application/xml", Body: []byte("<ok/>")}.IntoResponse(s)
	if rsp.Status != http.StatusAccepted {
		t.Errorf("Status = %v, want 202", rsp.Status)
	}
	if got := rsp.Header.Get("Content-Type"); got != "application/xml" {
		t.Errorf("Content-Type = %v", got)
	}
}

func TestResponseWrite(t *testing.T) {
	rsp := Empty(http.StatusCreated)
	rsp.Header.Set("Content-Type", "application/json")
	rsp.Body = []byte(`{"status":"created"}`)

	rr := httptest.NewRecorder()
	if err := rsp.Write(rr); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %v, want 201", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %v", got)
	}
	if rr.Body.String() != `{"status":"created"}` {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestResponseWriteEmptyBody(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := Empty(http.StatusNoContent).Write(rr); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %v, want 204", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected no body, got %q", rr.Body.String())
	}
}
