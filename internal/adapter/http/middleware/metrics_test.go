package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		label      string
		statusCode int
	}{
		{
			name:       "payment id collapses to pattern",
			method:     http.MethodGet,
			path:       "/api/v1/payments/01HZX",
			label:      "/api/v1/payments/{id}",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "nested route",
			method:     http.MethodPost,
			path:       "/api/v1/invoices/inv-9/void",
			label:      "/api/v1/invoices/{id}/void",
			statusCode: http.StatusOK,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/nope/123",
			label:      "unmatched",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			httpRequestsTotal.Reset()
			httpRequestDuration.Reset()
			httpRequestsInFlight.Set(0)

			handler := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}

			r := chi.NewRouter()
			r.Use(Metrics)
			r.Get("/api/v1/payments/{id}", handler)
			r.Post("/api/v1/invoices/{id}/void", handler)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.label, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter for %s to be 1, got %v", tc.label, got)
			}
		})
	}
}
