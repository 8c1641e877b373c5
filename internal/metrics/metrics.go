package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "velour_ledger_transactions_total",
		Help: "Committed ledger transactions by type.",
	}, []string{"type"})

	LedgerConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "velour_ledger_conflicts_total",
		Help: "Balance writes that exhausted optimistic retries.",
	})

	InsufficientCredits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "velour_ledger_insufficient_total",
		Help: "Debits rejected for insufficient balance.",
	})

	PayoutTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "velour_payout_transitions_total",
		Help: "Payout state transitions by resulting status.",
	}, []string{"status"})
)
