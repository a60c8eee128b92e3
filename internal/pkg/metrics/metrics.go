package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Outcome labels for store mutations
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics records HTTP traffic and cart/wishlist mutations.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	rateLimit prometheus.Counter
}

// New registers the storefront collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_mutations_total",
		Help:      "Cart and wishlist mutations by store, operation, owner kind and outcome.",
	}, []string{"store", "op", "owner", "outcome"})
	rateLimit := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	reg.MustRegister(requests, latency, mutations, rateLimit)
	return &Metrics{
		requests:  requests,
		latency:   latency,
		mutations: mutations,
		rateLimit: rateLimit,
	}
}

// ObserveRequest records one completed HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncMutation counts a cart or wishlist mutation. ownerKind is "user" or "session".
func (m *Metrics) IncMutation(store, op, ownerKind, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(store), normalizeLabel(op), normalizeLabel(ownerKind), normalizeLabel(outcome)).Inc()
}

// IncRateLimited counts a request rejected by the rate limiter
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimit.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
