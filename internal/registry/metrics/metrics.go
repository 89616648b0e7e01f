package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes the chain RPC boundary.
type Metrics struct {
	RPCRequests      *prometheus.CounterVec
	RPCDuration      *prometheus.HistogramVec
	FinalityOutcomes *prometheus.CounterVec
	FinalityWait     prometheus.Histogram
	BreakerOpen      prometheus.Gauge
}

// New creates and registers the chain metrics.
func New() *Metrics {
	return &Metrics{
		RPCRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_chain_rpc_requests_total",
			Help: "Chain RPC calls by operation and outcome (ok, rejected, error)",
		}, []string{"operation", "status"}),
		RPCDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landledger_chain_rpc_duration_seconds",
			Help:    "Chain RPC latency by operation, including rate limiter wait",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		FinalityOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_chain_finality_total",
			Help: "Finality waits by outcome",
		}, []string{"outcome"}),
		FinalityWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "landledger_chain_finality_wait_seconds",
			Help:    "Time from submission to confirmed, reverted or timed out",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300},
		}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "landledger_chain_rpc_breaker_open",
			Help: "1 while the chain RPC circuit breaker is open",
		}),
	}
}

// ObserveRPC records one RPC call.
func (m *Metrics) ObserveRPC(operation, status string, start time.Time) {
	m.RPCRequests.WithLabelValues(operation, status).Inc()
	m.RPCDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveFinality records a finality wait.
func (m *Metrics) ObserveFinality(outcome string, start time.Time) {
	m.FinalityOutcomes.WithLabelValues(outcome).Inc()
	m.FinalityWait.Observe(time.Since(start).Seconds())
}

// SetBreakerOpen mirrors the breaker state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
