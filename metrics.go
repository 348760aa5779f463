package oioproxy

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the HTTP request path, registered once at package
// init so every Proxy instance in a process shares the same collectors.
var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oioproxy_requests_total",
			Help: "Total number of proxy requests by route and outcome code.",
		},
		[]string{"route", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oioproxy_request_duration_seconds",
			Help:    "Request handling latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oioproxy_cache_hits_total",
			Help: "Resolver cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(cacheHitsTotal)
}

func observeRequest(route string, code int, start time.Time) {
	requestsTotal.WithLabelValues(route, codeLabel(code)).Inc()
	requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

func codeLabel(code int) string {
	if code == 0 {
		return "ok"
	}
	return strconv.Itoa(code)
}
