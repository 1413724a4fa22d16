package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	QuotesComputed    *prometheus.CounterVec
	QuotesUnavailable prometheus.Counter
	StepTransitions   *prometheus.CounterVec
	ValidationErrors  *prometheus.CounterVec
	PoliciesIssued    *prometheus.CounterVec
	LoginAttempts     *prometheus.CounterVec
	EndpointLatency   *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QuotesComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripwise_quotes_computed_total",
			Help: "Total number of premium quotes computed, labeled by zone",
		}, []string{"zone"}),
		QuotesUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Name: "tripwise_quotes_unavailable_total",
			Help: "Total number of quote requests that lacked input",
		}),
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripwise_wizard_transitions_total",
			Help: "Total number of wizard transitions, labeled by action and outcome",
		}, []string{"action", "outcome"}),
		ValidationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripwise_validation_errors_total",
			Help: "Total number of field validation failures, labeled by field",
		}, []string{"field"}),
		PoliciesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripwise_policies_total",
			Help: "Total number of policy lifecycle events, labeled by event",
		}, []string{"event"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripwise_login_attempts_total",
			Help: "Total number of login attempts, labeled by outcome",
		}, []string{"outcome"}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripwise_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveQuote(zone string, ok bool) {
	if !ok {
		m.QuotesUnavailable.Inc()
		return
	}

	m.QuotesComputed.WithLabelValues(zone).Inc()
}

func (m *Metrics) ObserveTransition(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}

	m.StepTransitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveValidation(fields ...string) {
	for _, f := range fields {
		m.ValidationErrors.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) ObservePolicy(event string) {
	m.PoliciesIssued.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveLogin(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}

	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// LatencyMiddleware records request duration by chi route pattern.
func LatencyMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			if m == nil {
				return
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			m.EndpointLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
