package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billdesk_http_requests_total",
		Help: "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billdesk_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	invoicesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billdesk_invoices_created_total",
		Help: "Invoices created through the API.",
	})

	invoiceNumberCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billdesk_invoice_number_collisions_total",
		Help: "Invoice creations rejected because the number was already taken.",
	})
)

// recordMetrics observes every request with its templated route, so
// /api/invoices/:uuid stays one series regardless of the UUID.
func recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
