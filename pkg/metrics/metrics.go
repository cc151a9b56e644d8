package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	LedgerMutations    *prometheus.CounterVec
	Settlements        *prometheus.CounterVec
	ConversionFailures prometheus.Counter
	SettlementDuration prometheus.Histogram
	WalletsProvisioned prometheus.Counter
	DepositsRejected   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LedgerMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Ledger field mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement runs by terminal state.",
		}, []string{"state"}),
		ConversionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "currency_conversion_failures_total",
			Help: "Conversions refused because a rate was missing.",
		}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Wall time of a full settlement run.",
			Buckets: prometheus.DefBuckets,
		}),
		WalletsProvisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallets_provisioned_total",
			Help: "Custodial wallets created.",
		}),
		DepositsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deposits_rejected_total",
			Help: "Deposit notifications for unmonitored addresses.",
		}),
	}

	reg.MustRegister(
		m.LedgerMutations,
		m.Settlements,
		m.ConversionFailures,
		m.SettlementDuration,
		m.WalletsProvisioned,
		m.DepositsRejected,
	)
	return m
}

// NewNop returns collectors registered nowhere, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
