package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordRPC("visitor.list", "OK")
		m.RecordProvisioning("staff", "created")
		m.RecordRedirect("wrong_role")
		m.RecordEmail("visitor_arrival", nil)
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRPC("visitor.respond", "OK")
	m.RecordRPC("visitor.respond", "OK")
	m.RecordEmail("visitor_arrival", errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.rpcCalls.WithLabelValues("visitor.respond", "OK")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.emails.WithLabelValues("visitor_arrival", "failed")))
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/visitor/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/visitor/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("/visitor/:id", "GET", "204")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "frontdesk_http_requests_total")
}
