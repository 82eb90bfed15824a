package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func meteredRouter(service string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/api/v1/wishlist/{tagId}", handler)
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := meteredRouter("metrics-count", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wishlist/"+id, nil))
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-count", http.MethodGet, "/api/v1/wishlist/{tagId}", "200"))
	assert.Equal(t, float64(3), got)
}

func TestPrometheusMetrics_CapturesStatus(t *testing.T) {
	r := meteredRouter("metrics-status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wishlist/x", nil))

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-status", http.MethodGet, "/api/v1/wishlist/{tagId}", "404"))
	assert.Equal(t, float64(1), got)
}

func TestPrometheusMetrics_DefaultStatusIs200(t *testing.T) {
	r := meteredRouter("metrics-default", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wishlist/x", nil))

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-default", http.MethodGet, "/api/v1/wishlist/{tagId}", "200"))
	assert.Equal(t, float64(1), got)
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	var during float64
	r := meteredRouter("metrics-inflight", func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-inflight"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wishlist/x", nil))

	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-inflight")))
}
