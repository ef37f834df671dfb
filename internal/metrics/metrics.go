// Package metrics registers the prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aizer",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aizer",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	snapshotLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aizer",
		Name:      "snapshot_loads_total",
		Help:      "Group snapshot loads by outcome kind.",
	}, []string{"result"})

	snapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aizer",
		Name:      "snapshot_load_duration_seconds",
		Help:      "Time to load the three collections of a group snapshot.",
		Buckets:   prometheus.DefBuckets,
	})

	relocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aizer",
		Name:      "relocations_total",
		Help:      "Item and container relocations by target kind and outcome.",
	}, []string{"target", "result"})
)

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return failure.KindOf(err).String()
}

func ObserveSnapshotLoad(d time.Duration, err error) {
	snapshotLoads.WithLabelValues(outcome(err)).Inc()
	snapshotDuration.Observe(d.Seconds())
}

// ObserveRelocation counts a move into target ("space" or "inventory").
func ObserveRelocation(target string, err error) {
	relocations.WithLabelValues(target, outcome(err)).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// pattern, not the raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
