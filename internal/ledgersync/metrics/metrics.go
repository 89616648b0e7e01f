package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes the synchronization workflows. A nil *Metrics records nothing.
type Metrics struct {
	WorkflowOutcomes *prometheus.CounterVec
	WorkflowDuration *prometheus.HistogramVec
	LeaseContention  *prometheus.CounterVec
	SellerMismatch   prometheus.Counter
	EffectRetries    *prometheus.CounterVec
	Reconciliations  *prometheus.CounterVec
	ReconcileAlerts  prometheus.Counter
	ReconcilePending prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		WorkflowOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_workflow_outcomes_total",
			Help: "Workflow completions by kind and error code (ok on success)",
		}, []string{"workflow", "outcome"}),
		WorkflowDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landledger_workflow_duration_seconds",
			Help:    "Workflow latency including finality wait",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"workflow"}),
		LeaseContention: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_lease_contention_total",
			Help: "Workflow invocations refused because the land was already in flight",
		}, []string{"workflow"}),
		SellerMismatch: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landledger_purchase_seller_mismatch_total",
			Help: "Purchases where the on-chain seller differed from the listing seller",
		}),
		EffectRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_effect_retries_total",
			Help: "Retried off-chain writes by store",
		}, []string{"store"}),
		Reconciliations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_reconciliations_total",
			Help: "Journal replays by result (resolved, pending, error)",
		}, []string{"result"}),
		ReconcileAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landledger_reconciliation_alerts_total",
			Help: "Operator alerts raised after replay attempts were exhausted",
		}),
		ReconcilePending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "landledger_reconciliation_pending",
			Help: "Open journal entries seen by the last reconciler pass",
		}),
	}
}

func (m *Metrics) ObserveWorkflow(workflow, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.WorkflowOutcomes.WithLabelValues(workflow, outcome).Inc()
	m.WorkflowDuration.WithLabelValues(workflow).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncLeaseContention(workflow string) {
	if m != nil {
		m.LeaseContention.WithLabelValues(workflow).Inc()
	}
}

func (m *Metrics) IncSellerMismatch() {
	if m != nil {
		m.SellerMismatch.Inc()
	}
}

func (m *Metrics) IncEffectRetry(store string) {
	if m != nil {
		m.EffectRetries.WithLabelValues(store).Inc()
	}
}

func (m *Metrics) IncReconciliation(result string) {
	if m != nil {
		m.Reconciliations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncAlert() {
	if m != nil {
		m.ReconcileAlerts.Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.ReconcilePending.Set(float64(n))
	}
}
