package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterValue(f *dto.MetricFamily, labels map[string]string) float64 {
	for _, m := range f.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveGenerate("ok", 0.01, 5)
	m.ObserveGenerate("not_found", 0.001, 0)
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObserveOrderEvent("order.created", "ok")

	families := gather(t, reg)
	assert.Equal(t, 1.0, counterValue(families["bookavail_availability_requests_total"], map[string]string{"outcome": "ok"}))
	assert.Equal(t, 1.0, counterValue(families["bookavail_availability_requests_total"], map[string]string{"outcome": "not_found"}))
	assert.Equal(t, 2.0, counterValue(families["bookavail_cache_lookups_total"], map[string]string{"result": "miss"}))
	assert.Equal(t, 1.0, counterValue(families["bookavail_orders_events_total"], map[string]string{"type": "order.created", "status": "ok"}))

	assert.Equal(t, uint64(2), families["bookavail_availability_generate_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, uint64(1), families["bookavail_availability_days"].GetMetric()[0].GetHistogram().GetSampleCount(), "only successful requests record days")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGenerate("ok", 1, 1)
	m.ObserveCacheLookup(true)
	m.ObserveOrderEvent("order.cancelled", "error")
}
