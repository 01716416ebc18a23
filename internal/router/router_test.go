package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/afikmenashe/accident-relay/pkg/metrics"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Write([]byte("OK"))
	})
}

func TestNewRouter(t *testing.T) {
	calls := 0
	r := NewRouter(okHandler(&calls), Options{})
	if r.mux == nil {
		t.Error("NewRouter() mux is nil")
	}
	if r.limiter != nil {
		t.Error("NewRouter() limiter should be nil without a rate limit")
	}

	r = NewRouter(okHandler(&calls), Options{RateLimit: 5, Burst: 2})
	if r.limiter == nil {
		t.Error("NewRouter() limiter should be set with a rate limit")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		wantStatus   int
		wantBody     string
		wantForwards int
	}{
		{name: "webhook POST", method: http.MethodPost, path: "/webhook", wantStatus: http.StatusOK, wantBody: "OK", wantForwards: 1},
		{name: "webhook GET", method: http.MethodGet, path: "/webhook", wantStatus: http.StatusMethodNotAllowed},
		{name: "health GET", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "health POST", method: http.MethodPost, path: "/health", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := NewRouter(okHandler(&calls), Options{}).Handler()

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if calls != tt.wantForwards {
				t.Errorf("webhook handler called %d times, want %d", calls, tt.wantForwards)
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	calls := 0
	handler := NewRouter(okHandler(&calls), Options{RateLimit: 0.001, Burst: 2}).Handler()

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
	if calls != 2 {
		t.Errorf("webhook handler called %d times, want 2", calls)
	}

	// Health checks are not rate limited.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	collector := metrics.NewCollector("accident-relay", nil)
	calls := 0
	handler := NewRouter(okHandler(&calls), Options{Collector: collector}).Handler()

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/webhook", nil),
		httptest.NewRequest(http.MethodGet, "/webhook", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
	} {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	snap := collector.Snapshot()
	if snap.Counters["http_requests"] != 2 {
		t.Errorf("http_requests = %d, want 2", snap.Counters["http_requests"])
	}
	if snap.Counters["http_errors"] != 1 {
		t.Errorf("http_errors = %d, want 1", snap.Counters["http_errors"])
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	calls := 0

	w := httptest.NewRecorder()
	NewRouter(okHandler(&calls), Options{}).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status without collector = %d, want 404", w.Code)
	}

	collector := metrics.NewCollector("accident-relay", nil)
	collector.RecordReceived()
	handler := NewRouter(okHandler(&calls), Options{Collector: collector}).Handler()

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.ServiceName != "accident-relay" || snap.MessagesReceived != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestNewServer(t *testing.T) {
	calls := 0
	srv := NewServer("4000", okHandler(&calls), Options{})

	if srv.Addr != ":4000" {
		t.Errorf("Addr = %q, want :4000", srv.Addr)
	}
	if srv.ReadTimeout != 15*time.Second || srv.WriteTimeout != 30*time.Second || srv.IdleTimeout != 60*time.Second {
		t.Errorf("timeouts = %v/%v/%v", srv.ReadTimeout, srv.WriteTimeout, srv.IdleTimeout)
	}
	if srv.Handler == nil {
		t.Error("Handler is nil")
	}
}
