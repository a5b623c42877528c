// Package metrics declares the Prometheus instruments shared by both
// services. Collectors are registered on the default registry; routers
// expose them via promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerDebits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotlight_ledger_debits_total",
		Help: "Ledger debit attempts by result.",
	}, []string{"result"})

	SweptTransactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotlight_ledger_swept_transactions_total",
		Help: "Unconfirmed debits reaped after the grace window.",
	})

	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotlight_comments_created_total",
		Help: "Successfully created comments, split by paid highlight.",
	}, []string{"highlighted"})

	SagaFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotlight_comment_saga_failures_total",
		Help: "Comment creation sagas that failed, by the step that failed.",
	}, []string{"step"})

	SagaCompensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotlight_saga_compensations_total",
		Help: "Compensating actions executed during saga unwinding.",
	})

	ConsistencyAnomalies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotlight_consistency_anomalies_total",
		Help: "Compensation steps that themselves failed and need manual reconciliation.",
	})
)
