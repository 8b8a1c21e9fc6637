package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"famfin/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: "test", Handler: log.NewHandler(&buf, "text", slog.LevelDebug)})
	m := NewMiddleware(logger, func(*http.Request) string { return "203.0.113.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/loans", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request started") || !strings.Contains(out, "status_code=418") {
		t.Errorf("missing start/end log lines:\n%s", out)
	}
	if !strings.Contains(out, "request_id="+seen) {
		t.Errorf("log lines should carry the request id:\n%s", out)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("TotalRequests = %d", m.GetMetrics().TotalRequests)
	}
}

func TestMiddlewareKeepsValidCallerID(t *testing.T) {
	m := NewMiddleware(log.New(log.DefaultConfig()), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	id := uuid.NewString()
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, id)
	h.ServeHTTP(rr, r)
	if rr.Header().Get(HeaderRequestID) != id {
		t.Errorf("caller id not propagated")
	}

	rr = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "<script>")
	h.ServeHTTP(rr, r)
	if rr.Header().Get(HeaderRequestID) == "<script>" {
		t.Errorf("invalid caller id must be replaced")
	}
	if m.GetMetrics().ServerErrors != 2 {
		t.Errorf("ServerErrors = %d, want 2", m.GetMetrics().ServerErrors)
	}
}
