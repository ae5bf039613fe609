// Package metrics exposes the service's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "keyhub"

type Metrics struct {
	keyActivations     *prometheus.CounterVec
	keysIssued         prometheus.Counter
	keysExpired        prometheus.Counter
	violations         *prometheus.CounterVec
	keyReplacements    prometheus.Counter
	notifications      *prometheus.CounterVec
	provisioningErrors *prometheus.CounterVec
	providerDuration   *prometheus.HistogramVec
	jobRuns            *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers all collectors with registerer, or the default registerer when nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		keyActivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_activations_total",
			Help:      "Key activation attempts by result.",
		}, []string{"result"}),
		keysIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_issued_total",
			Help:      "Keys created by paid batches.",
		}),
		keysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_expired_total",
			Help:      "Keys moved to expired by reconciliation.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Counted connection-limit violations by escalation step.",
		}, []string{"step"}),
		keyReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_replacements_total",
			Help:      "Keys replaced after repeated violations.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Telegram notifications by delivery outcome.",
		}, []string{"outcome"}),
		provisioningErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_errors_total",
			Help:      "Provider call failures by kind and provider.",
		}, []string{"kind", "provider"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of outbound provider API calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "op"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registerer.MustRegister(
		m.keyActivations,
		m.keysIssued,
		m.keysExpired,
		m.violations,
		m.keyReplacements,
		m.notifications,
		m.provisioningErrors,
		m.providerDuration,
		m.jobRuns,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) KeyActivation(result string) {
	if m == nil {
		return
	}
	m.keyActivations.WithLabelValues(result).Inc()
}

func (m *Metrics) KeysIssued(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.keysIssued.Add(float64(n))
}

func (m *Metrics) KeyExpired() {
	if m == nil {
		return
	}
	m.keysExpired.Inc()
}

func (m *Metrics) Violation(step string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(step).Inc()
}

func (m *Metrics) KeyReplaced() {
	if m == nil {
		return
	}
	m.keyReplacements.Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProvisioningError(kind, provider string) {
	if m == nil {
		return
	}
	m.provisioningErrors.WithLabelValues(kind, provider).Inc()
}

func (m *Metrics) ObserveProviderRequest(provider, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
