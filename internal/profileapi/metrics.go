package profileapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the service's Prometheus collectors.
type metrics struct {
	requests    *prometheus.CounterVec   // Requests by route and status
	duration    *prometheus.HistogramVec // Handler latency by route
	submissions *prometheus.CounterVec   // Create-profile outcomes
	published   *prometheus.CounterVec   // Event publish outcomes
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiled",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "profiled",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP handler latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiled",
			Subsystem: "profiles",
			Name:      "submissions_total",
			Help:      "Create-profile submissions by outcome",
		}, []string{"outcome"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiled",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Profile events by publish outcome",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.submissions, m.published} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// middleware records request counts and latency per matched route.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, statusLabel(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
