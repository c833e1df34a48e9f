package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records bid-engine counters and latencies.
type EngineMetrics struct {
	opDuration      *prometheus.HistogramVec
	casConflicts    *prometheus.CounterVec
	quotaDenials    *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
	outboxDLQ       *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bid_operation_duration_seconds",
		Help:    "Duration of bid lifecycle operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	casConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bid_cas_conflicts_total",
		Help: "Conditional updates lost to a concurrent writer.",
	}, []string{"operation"})
	quotaDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_denials_total",
		Help: "Operations rejected by quota enforcement.",
	}, []string{"quota"})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events successfully published.",
	}, []string{"event_type"})
	outboxDLQ := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dlq_total",
		Help: "Outbox events parked in the dead-letter queue.",
	}, []string{"reason"})
	reg.MustRegister(opDuration, casConflicts, quotaDenials, outboxPublished, outboxDLQ)
	return &EngineMetrics{
		opDuration:      opDuration,
		casConflicts:    casConflicts,
		quotaDenials:    quotaDenials,
		outboxPublished: outboxPublished,
		outboxDLQ:       outboxDLQ,
	}
}

// ObserveOperation records the duration for the named operation.
func (m *EngineMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil || m.opDuration == nil {
		return
	}
	m.opDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncCASConflict counts a lost conditional update.
func (m *EngineMetrics) IncCASConflict(operation string) {
	if m == nil || m.casConflicts == nil {
		return
	}
	m.casConflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncQuotaDenial counts a quota rejection for the named quota kind.
func (m *EngineMetrics) IncQuotaDenial(quota string) {
	if m == nil || m.quotaDenials == nil {
		return
	}
	m.quotaDenials.WithLabelValues(normalizeLabel(quota)).Inc()
}

// IncOutboxPublished counts a delivered outbox event.
func (m *EngineMetrics) IncOutboxPublished(eventType string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncOutboxDLQ counts a terminally failed outbox event.
func (m *EngineMetrics) IncOutboxDLQ(reason string) {
	if m == nil || m.outboxDLQ == nil {
		return
	}
	m.outboxDLQ.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
