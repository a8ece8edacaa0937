// Package metrics provides Prometheus collectors and gin middleware for the
// todo service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts HTTP requests by method, route template and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthFailuresTotal counts rejected requests on protected routes by reason
	// ("missing_token", "invalid_token").
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_auth_failures_total",
			Help: "Rejected authentication attempts",
		},
		[]string{"reason"},
	)

	// RegistrationsTotal and LoginsTotal count outcomes ("ok", "invalid", "conflict", "unauthorized", "error").
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_registrations_total",
			Help: "User registrations by outcome",
		},
		[]string{"outcome"},
	)
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FeedConnections tracks open websocket list feeds.
	FeedConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "todo_feed_connections_active",
			Help: "Active websocket feeds",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		RegistrationsTotal,
		LoginsTotal,
		FeedConnections,
	)
}

// Middleware records request count and latency. Routes are labelled by
// their template ("/todos/:id") so ids do not blow up cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"

		RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
