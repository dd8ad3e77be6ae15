// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpensesRecorded counts persisted expenses, split by origin.
	ExpensesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_expenses_recorded_total",
		Help: "Number of expenses recorded.",
	}, []string{"source"})

	// BudgetAlerts counts alerts produced by budget evaluation.
	BudgetAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_budget_alerts_total",
		Help: "Number of budget alerts produced, by state.",
	}, []string{"state"})

	// NotificationsSent counts delivery attempts per sink and outcome.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_notifications_total",
		Help: "Notification delivery attempts, by sink and result.",
	}, []string{"sink", "result"})

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware records request latency labelled by the matched route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
