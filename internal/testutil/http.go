package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/dalemusser/studytrack/internal/domain/models"
)

// WithUser adds u to the request context as the authenticated caller.
// This bypasses token parsing and injects the user directly.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithUser(r, &auth.User{ID: u.ID.Hex(), Email: u.Email})
}

// NewRequest creates an HTTP request for testing. A non-nil body is
// JSON-encoded.
func NewRequest(method, target string, body any) *http.Request {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAuthenticatedRequest creates a request with u in context.
func NewAuthenticatedRequest(method, target string, body any, u models.User) *http.Request {
	return WithUser(NewRequest(method, target, body), u)
}

// Envelope mirrors the API response body for decoding in tests.
type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      *int64          `json:"total"`
	TotalPages *int            `json:"totalPages"`
	Timestamp  string          `json:"timestamp"`
}

type errorfer interface {
	Errorf(string, ...any)
	Fatalf(string, ...any)
	Helper()
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t errorfer, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t errorfer, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// Envelope decodes the body. When data is non-nil the envelope's data is
// decoded into it.
func (r *ResponseRecorder) Envelope(t errorfer, data any) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, r.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode envelope data: %v", err)
		}
	}
	return env
}
