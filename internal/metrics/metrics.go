// Package metrics provides Prometheus instrumentation for the sentinel.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransactionsProcessed counts transactions accepted by the engine.
	TransactionsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "transactions_processed_total",
		Help:      "Total transactions scored by the engine.",
	})

	// TransactionsRejected counts malformed transactions dropped at intake.
	TransactionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "transactions_rejected_total",
		Help:      "Total malformed transactions rejected without scoring.",
	})

	// TransactionsDropped counts transactions shed by the bounded queue.
	TransactionsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "transactions_dropped_total",
		Help:      "Total transactions dropped under queue back-pressure.",
	})

	// TrackedAccounts tracks the number of accounts in the ledger.
	TrackedAccounts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "tracked_accounts",
		Help:      "Number of accounts currently tracked in the ledger.",
	})

	// ActiveAlerts tracks accounts above the alert threshold.
	ActiveAlerts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "active_alerts",
		Help:      "Accounts whose final score exceeds the alert threshold.",
	})

	// AvgRiskScore tracks the mean final score across tracked accounts.
	AvgRiskScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "avg_risk_score",
		Help:      "Mean final suspicion score across all tracked accounts.",
	})

	// AnalysisCalls counts deep-analysis calls by outcome.
	AnalysisCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "analysis_calls_total",
		Help:      "Deep-analysis capability calls by outcome.",
	}, []string{"outcome"})

	// CircuitOpen is 1 while the analysis circuit is open.
	CircuitOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "analysis_circuit_open",
		Help:      "Whether the deep-analysis circuit breaker is open.",
	})
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(
		TransactionsProcessed,
		TransactionsRejected,
		TransactionsDropped,
		TrackedAccounts,
		ActiveAlerts,
		AvgRiskScore,
		AnalysisCalls,
		CircuitOpen,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
