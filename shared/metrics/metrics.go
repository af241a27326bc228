// Package metrics holds the Prometheus collectors shared by every service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cafein"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ratingRecalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cafe",
			Name:      "rating_recalculations_total",
			Help:      "Cafe rating recalculations by trigger.",
		},
		[]string{"trigger"},
	)

	oauthLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "oauth2_logins_total",
			Help:      "OAuth2 login attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	tokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "JWTs issued by kind.",
		},
		[]string{"kind"},
	)

	eventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Stream events handled by type and result.",
		},
		[]string{"type", "success"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events appended to Redis streams by stream and result.",
		},
		[]string{"stream", "success"},
	)

	eventsReclaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "reclaimed_total",
			Help:      "Pending stream entries claimed again after their consumer stalled.",
		},
		[]string{"stream"},
	)

	redisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "Redis command latency by command and result.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"command", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ratingRecalculations,
		oauthLogins,
		tokensIssued,
		eventsHandled,
		eventsPublished,
		eventsReclaimed,
		redisDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by the matched gin
// route, so path parameters never explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Trigger values for RecordRatingRecalculation.
const (
	TriggerPostWrite     = "post_write"
	TriggerMemberDeleted = "member_deleted"
	TriggerManual        = "manual"
)

func RecordRatingRecalculation(trigger string) {
	ratingRecalculations.WithLabelValues(trigger).Inc()
}

// Outcome values for RecordOAuthLogin.
const (
	OutcomeCreated  = "created"
	OutcomeExisting = "existing"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

func RecordOAuthLogin(provider, outcome string) {
	if provider == "" {
		provider = "unknown"
	}
	oauthLogins.WithLabelValues(provider, outcome).Inc()
}

func RecordTokenIssued(kind string) {
	tokensIssued.WithLabelValues(kind).Inc()
}

func RecordEventHandled(eventType string, success bool) {
	eventsHandled.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}

func RecordEventPublished(stream string, success bool) {
	eventsPublished.WithLabelValues(stream, strconv.FormatBool(success)).Inc()
}

func RecordEventsReclaimed(stream string, n int) {
	if n > 0 {
		eventsReclaimed.WithLabelValues(stream).Add(float64(n))
	}
}

// ObserveRedisCommand records one round trip. A redis.Nil reply counts as
// success; callers pass failed=false for it.
func ObserveRedisCommand(command string, elapsed time.Duration, failed bool) {
	redisDuration.WithLabelValues(command, strconv.FormatBool(!failed)).Observe(elapsed.Seconds())
}
