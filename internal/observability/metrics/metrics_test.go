package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/search":                    "/v1/search",
		"/v1/snapshots":                 "/v1/snapshots",
		"/v1/snapshots/0a1b2c3d":        "/v1/snapshots/{id}",
		"/v1/snapshots/0a1b2c3d/export": "/v1/snapshots/{id}/export",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/snapshots/0a1b2c3d", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/snapshots/{id}", "404"))
	if got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
}

func TestRecordSearch(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordSearch("ok", 2, 3, 1, time.Second)
	m.RecordSearch("timeout", 0, 0, 0, time.Second)

	if got := testutil.ToFloat64(m.searchRequestsTotal.WithLabelValues("api", "ok")); got != 1 {
		t.Fatalf("ok searches = %v", got)
	}
	if got := testutil.ToFloat64(m.searchRequestsTotal.WithLabelValues("api", "timeout")); got != 1 {
		t.Fatalf("timeout searches = %v", got)
	}

	var nilMetrics *HTTPServerMetrics
	nilMetrics.RecordSearch("ok", 1, 1, 1, time.Second)
	nilMetrics.RecordTokenUsage("chat", "m", 1, 1)
	nilMetrics.RecordBreakerState("op", "open")
}

func TestRecordBreakerStateAndTokens(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordBreakerState("openai.chat", "open")
	m.RecordTokenUsage("chat", "", 10, 4)

	if got := testutil.ToFloat64(m.breakerState.WithLabelValues("api", "openai.chat")); got != 2 {
		t.Fatalf("breaker state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.llmTokensTotal.WithLabelValues("api", "chat", "in", "unknown")); got != 10 {
		t.Fatalf("tokens in = %v, want 10", got)
	}
}

func TestWorkerMetricsExposeEvents(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartEvent()
	m.FinishEvent("worker", "upsert", 10*time.Millisecond, nil)
	m.StartEvent()
	m.FinishEvent("worker", "delete", 10*time.Millisecond, errors.New("boom"))

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := res.Body.String()
	if !strings.Contains(body, `builder_search_worker_notification_events_total{action="delete",service="worker",status="error"} 1`) {
		t.Fatalf("missing event counter in exposition:\n%s", body)
	}
}
