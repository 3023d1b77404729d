package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ProtocolMetrics aggregates the counters exposed by the settlement, backfill
// and oracle modules.
type ProtocolMetrics struct {
	Settlements     *prometheus.CounterVec
	BackfillRecords *prometheus.CounterVec
	OracleReads     *prometheus.CounterVec
}

var (
	protocolMetricsOnce sync.Once
	protocolRegistry    *ProtocolMetrics
)

// Metrics returns the lazily-initialised protocol metrics registry.
func Metrics() *ProtocolMetrics {
	protocolMetricsOnce.Do(func() {
		protocolRegistry = &ProtocolMetrics{
			Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "custodia",
				Subsystem: "settle",
				Name:      "settlements_total",
				Help:      "Total settlement attempts segmented by outcome.",
			}, []string{"outcome"}),
			BackfillRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "custodia",
				Subsystem: "migrate",
				Name:      "backfill_records_total",
				Help:      "Backfill records processed segmented by kind and result.",
			}, []string{"kind", "result"}),
			OracleReads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "custodia",
				Subsystem: "oracle",
				Name:      "reads_total",
				Help:      "Oracle price reads segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			protocolRegistry.Settlements,
			protocolRegistry.BackfillRecords,
			protocolRegistry.OracleReads,
		)
	})
	return protocolRegistry
}
