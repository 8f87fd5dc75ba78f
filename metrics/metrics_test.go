package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncCounter(EventSettled, map[string]string{"rail": "lightning"})
	rec.IncCounter(EventSettled, map[string]string{"rail": "lightning"})
	rec.IncCounter(EventBuildFallback, nil)
	rec.ObserveLatency("create_unified_request", 20*time.Millisecond, map[string]string{"rail": "lightning"})

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.counters.WithLabelValues(EventSettled, "lightning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.counters.WithLabelValues(EventBuildFallback, "")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "receive_events_total")
	assert.Contains(t, names, "receive_latency_seconds")
}

func TestPrometheusRecorder_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheusRecorder(reg)

	var second *PrometheusRecorder
	require.NotPanics(t, func() { second = NewPrometheusRecorder(reg) })

	first.IncCounter(EventSettled, map[string]string{"rail": "onchain"})
	second.IncCounter(EventSettled, map[string]string{"rail": "onchain"})
	assert.Equal(t, 2.0, testutil.ToFloat64(second.counters.WithLabelValues(EventSettled, "onchain")))
	assert.Same(t, first.histogram, second.histogram)
}

func TestMemoryRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	rec.IncCounter(EventPollLookupError, map[string]string{"rail": "onchain"})
	rec.IncCounter(EventPollLookupError, map[string]string{"rail": "onchain"})
	rec.IncCounter(EventBuildUnified, nil)
	rec.ObserveLatency("get_invoice_status", time.Millisecond, map[string]string{"rail": "lightning"})

	assert.Equal(t, 2, rec.Count(EventPollLookupError, "onchain"))
	assert.Equal(t, 0, rec.Count(EventPollLookupError, "lightning"))
	assert.Equal(t, 1, rec.Count(EventBuildUnified, ""))
	assert.Equal(t, 1, rec.Observations("get_invoice_status", "lightning"))
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopRecorder{}, OrNoop(nil))
	rec := NewMemoryRecorder()
	assert.Same(t, rec, OrNoop(rec))
}
