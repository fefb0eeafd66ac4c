package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/baharkarakas/blog-backend/internal/metrics"
)

func TestHTTPMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/api/blogs/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.RequestsTotal.WithLabelValues("/api/blogs/{slug}", http.MethodGet, "404")
	before := testutil.ToFloat64(counter)

	for _, slug := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/blogs/"+slug, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	counter := metrics.RequestsTotal.WithLabelValues("unmatched", http.MethodGet, "404")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
