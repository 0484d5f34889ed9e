package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/satellites", "/api/v1/satellites"},
		{"/api/v1/decay", "/api/v1/decay"},

		// Parameterized routes collapse to one label each.
		{"/api/v1/propagate/25544", "/api/v1/propagate/{norad_id}"},
		{"/api/v1/propagate/1", "/api/v1/propagate/{norad_id}"},
		{"/api/v1/elements/8195", "/api/v1/elements/{norad_id}"},
		{"/api/v1/access/28129", "/api/v1/access/{norad_id}"},

		// Non-numeric ids and unknown paths collapse to "other".
		{"/api/v1/propagate/iss", "other"},
		{"/api/v1/propagate/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/api/v2/something", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeRoute(tt.path))
		})
	}
}

// 100 distinct catalog numbers share one path label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute("/api/v1/propagate/"+strconv.Itoa(40000+i))] = true
	}
	assert.Len(t, seen, 1)
}

func TestMiddlewareCountsNormalizedRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := httpRequestsTotal.WithLabelValues("/api/v1/elements/{norad_id}", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"25544", "8195"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/elements/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(counter)-before)
}

func TestRecordHelpers(t *testing.T) {
	okBefore := testutil.ToFloat64(propagationsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(propagationsTotal.WithLabelValues("error"))
	RecordPropagation(3*time.Millisecond, 5, 2)
	assert.Equal(t, 5.0, testutil.ToFloat64(propagationsTotal.WithLabelValues("ok"))-okBefore)
	assert.Equal(t, 2.0, testutil.ToFloat64(propagationsTotal.WithLabelValues("error"))-errBefore)

	decayErr := testutil.ToFloat64(decayEstimatesTotal.WithLabelValues("error"))
	RecordDecay(errors.New("below table"))
	assert.Equal(t, 1.0, testutil.ToFloat64(decayEstimatesTotal.WithLabelValues("error"))-decayErr)

	SetCatalogSize(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(catalogSize))
}
