package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	rpcCalls     *prometheus.CounterVec
	provisioning *prometheus.CounterVec
	redirects    *prometheus.CounterVec
	emails       *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05,
				0.1, 0.25, 0.5, 1,
				2.5, 5, 10,
			},
		}, []string{"route", "method"}),
		rpcCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "RPC procedure calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		provisioning: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "auth",
			Name:      "provisioning_total",
			Help:      "Organization and staff provisioning attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "auth",
			Name:      "redirects_total",
			Help:      "Access redirects issued by reason.",
		}, []string{"reason"}),
		emails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound emails by template and result.",
		}, []string{"template", "result"}),
	}
}

// RecordRequest counts a served HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordRPC counts a procedure call. code is "OK" on success.
func (m *Metrics) RecordRPC(procedure, code string) {
	if m == nil {
		return
	}
	m.rpcCalls.WithLabelValues(procedure, code).Inc()
}

// RecordProvisioning counts an organization or staff upsert attempt.
func (m *Metrics) RecordProvisioning(kind, outcome string) {
	if m == nil {
		return
	}
	m.provisioning.WithLabelValues(kind, outcome).Inc()
}

// RecordRedirect counts an access redirect.
func (m *Metrics) RecordRedirect(reason string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(reason).Inc()
}

// RecordEmail counts an outbound email.
func (m *Metrics) RecordEmail(template string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.emails.WithLabelValues(template, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
