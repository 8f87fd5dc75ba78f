package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the receive collectors on reg, or on the
// default registerer when reg is nil. Collectors already registered by an
// earlier recorder are reused.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receive",
			Name:      "events_total",
			Help:      "Receive flow event counters",
		},
		[]string{"type", "rail"},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "receive",
			Name:      "latency_seconds",
			Help:      "Wallet engine call latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "rail"},
	)

	return &PrometheusRecorder{
		counters:  register(reg, counters),
		histogram: register(reg, histogram),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"type": name,
		"rail": labels["rail"],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation": name,
		"rail":      labels["rail"],
	}).Observe(d.Seconds())
}
