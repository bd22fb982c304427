package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/prescriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/prescriptions/{id}", "418"))

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest("GET", "/prescriptions/"+id, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/prescriptions/{id}", "418"))
	if after-before != 3 {
		t.Errorf("Expected 3 requests counted under the route pattern, got %v", after-before)
	}

	if got := testutil.ToFloat64(HTTPRequestInFlight); got != 0 {
		t.Errorf("Expected no in-flight requests after completion, got %v", got)
	}
}
