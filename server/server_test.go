package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/prescriptions-api/config"
	"github.com/go-chi/chi/v5"
)

// routeRecorder answers every endpoint with its own name
type routeRecorder struct{}

func reply(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(name))
	}
}

func (routeRecorder) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	reply("list:"+chi.URLParam(r, "patient"))(w, r)
}
func (routeRecorder) ListPrescriptionGroups(w http.ResponseWriter, r *http.Request) {
	reply("groups")(w, r)
}
func (routeRecorder) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	reply("toggle:"+chi.URLParam(r, "viewer")+":"+chi.URLParam(r, "doctorId"))(w, r)
}
func (routeRecorder) ViewPrescription(w http.ResponseWriter, r *http.Request) {
	reply("view:"+chi.URLParam(r, "id"))(w, r)
}
func (routeRecorder) ViewAllInGroup(w http.ResponseWriter, r *http.Request) {
	reply("view-all")(w, r)
}
func (routeRecorder) OpenRemoval(w http.ResponseWriter, r *http.Request) {
	reply("open-removal")(w, r)
}
func (routeRecorder) UpdateRemovalInput(w http.ResponseWriter, r *http.Request) {
	reply("input:"+chi.URLParam(r, "session"))(w, r)
}
func (routeRecorder) ConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	reply("confirm")(w, r)
}
func (routeRecorder) CloseRemoval(w http.ResponseWriter, r *http.Request) {
	reply("close")(w, r)
}
func (routeRecorder) ReportViolation(w http.ResponseWriter, r *http.Request) {
	reply("violation")(w, r)
}
func (routeRecorder) HealthCheck(w http.ResponseWriter, r *http.Request) {
	reply("health")(w, r)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		MaxRequestBody: 1024,
		MaxHeaderSize:  4096,
	}
}

func TestRoutes(t *testing.T) {
	s := NewServer(testConfig(), routeRecorder{})
	defer s.rateLimiter.Stop()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/patients/P-1/prescriptions", "list:P-1"},
		{"GET", "/patients/P-1/prescriptions/groups", "groups"},
		{"POST", "/viewers/v1/groups/7/toggle", "toggle:v1:7"},
		{"POST", "/viewers/v1/groups/7/view-all", "view-all"},
		{"GET", "/prescriptions/42", "view:42"},
		{"POST", "/prescriptions/42/removal", "open-removal"},
		{"PUT", "/removals/abc/input", "input:abc"},
		{"POST", "/removals/abc/confirm", "confirm"},
		{"DELETE", "/removals/abc", "close"},
		{"POST", "/security/violations", "violation"},
		{"GET", "/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:40000"
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rr.Code)
			}
			if rr.Body.String() != tt.want {
				t.Errorf("Expected handler %q, got %q", tt.want, rr.Body.String())
			}
			if rr.Header().Get("X-RateLimit-Limit") == "" {
				t.Error("Rate limit headers missing")
			}
		})
	}
}

func TestRoutesRejectWrongMethod(t *testing.T) {
	s := NewServer(testConfig(), routeRecorder{})
	defer s.rateLimiter.Stop()

	req := httptest.NewRequest("GET", "/removals/abc/confirm", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testConfig(), routeRecorder{})
	defer s.rateLimiter.Stop()

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("Expected Prometheus exposition output")
	}
}

func TestDirectAccessBlockedOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = config.EnvProduction
	s := NewServer(cfg, routeRecorder{})
	defer s.rateLimiter.Stop()

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for direct access in production, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected proxied request to pass, got %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := NewServer(testConfig(), routeRecorder{})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v after graceful shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Start did not return after shutdown")
	}
}
