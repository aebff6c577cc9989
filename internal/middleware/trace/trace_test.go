package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendview/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(log.New(log.Config{Format: "json", Output: &buf}), func(*http.Request) string { return "127.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		log.FromContext(r.Context()).Info("handling")
		w.WriteHeader(http.StatusBadGateway)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	if !strings.HasPrefix(seen, "req_") || rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id %q, header %q", seen, rr.Header().Get(HeaderRequestID))
	}
	if !strings.Contains(buf.String(), `"request_id":"`+seen+`"`) || !strings.Contains(buf.String(), `"status_code":502`) {
		t.Fatalf("log output:\n%s", buf.String())
	}
	if got := m.GetMetrics(); got.TotalRequests != 1 || got.FailedRequests != 1 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestIncomingRequestID(t *testing.T) {
	tests := map[string]string{
		"abc-123":               "abc-123",
		"":                      "",
		"has space":             "",
		strings.Repeat("x", 65): "",
	}
	for in, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRequestID, in)
		if got := incomingRequestID(r); got != want {
			t.Errorf("incomingRequestID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
