package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	return string(body)
}

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.ObserveQuote("CZ", true)
	m.ObserveQuote("CZ", true)
	m.ObserveQuote("", false)
	m.ObserveTransition("next", nil)
	m.ObserveTransition("next", errors.New("invalid"))
	m.ObserveValidation("email", "phone")
	m.ObservePolicy("created")
	m.ObserveLogin(false)

	out := scrape(t, m.Handler())

	assert.Contains(t, out, `tripwise_quotes_computed_total{zone="CZ"} 2`)
	assert.Contains(t, out, `tripwise_quotes_unavailable_total 1`)
	assert.Contains(t, out, `tripwise_wizard_transitions_total{action="next",outcome="ok"} 1`)
	assert.Contains(t, out, `tripwise_wizard_transitions_total{action="next",outcome="rejected"} 1`)
	assert.Contains(t, out, `tripwise_validation_errors_total{field="phone"} 1`)
	assert.Contains(t, out, `tripwise_policies_total{event="created"} 1`)
	assert.Contains(t, out, `tripwise_login_attempts_total{outcome="failure"} 1`)

	// Each instance owns its registry, so a second New must not panic.
	assert.NotPanics(t, func() { metrics.New() })
}

func TestLatencyMiddleware(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(metrics.LatencyMiddleware(m))
	r.Get("/policies/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/policies/POL-12345678", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	out := scrape(t, m.Handler())
	assert.Contains(t, out, `tripwise_endpoint_latency_seconds_count{method="GET",route="/policies/{id}"} 1`)
	assert.NotContains(t, out, "POL-12345678")
}
