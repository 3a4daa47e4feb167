package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConstraintEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dq_constraint_evaluations_total",
			Help: "Total number of constraint evaluations",
		},
		[]string{"kind"},
	)

	ConstraintFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dq_constraint_failures_total",
			Help: "Total number of failed constraint evaluations",
		},
		[]string{"kind"},
	)

	ConstraintMergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dq_constraint_merges_total",
			Help: "Total number of constraint merge operations",
		},
		[]string{"kind", "status"},
	)

	DocumentDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dq_constraint_document_decodes_total",
			Help: "Total number of constraint document decode attempts",
		},
		[]string{"format", "status"},
	)
)
