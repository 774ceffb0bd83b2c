package jwtmiddleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels recorded for every authentication attempt.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// Metrics records authentication outcomes in Prometheus.
type Metrics struct {
	verifications *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetrics creates the middleware's collectors under namespace and
// registers them with reg, or with prometheus.DefaultRegisterer when reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jwt_verifications_total",
			Help:      "Number of JWT authentication attempts by result and error code.",
		}, []string{"result", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "jwt_verification_duration_seconds",
			Help:      "Time spent authenticating a request.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.verifications, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Observe records one authentication attempt. A nil *Metrics records nothing.
func (m *Metrics) Observe(result, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result, code).Inc()
	m.duration.WithLabelValues(result).Observe(d.Seconds())
}
