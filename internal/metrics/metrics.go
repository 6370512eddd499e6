// Package metrics exposes Prometheus counters for the tracking core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProcessesCreated counts processes created by the factory and the
	// daemon, labelled by origin.
	ProcessesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checktrack_processes_created_total",
			Help: "Total processes created, by origin (api, daemon)",
		},
		[]string{"origin"},
	)

	// SyncsTotal counts reconciliation attempts by result
	// (applied, noop, unknown_job, error).
	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checktrack_syncs_total",
			Help: "Total job reconciliation attempts, by result",
		},
		[]string{"result"},
	)

	// ConsultsResolved counts consults resolved during reconciliation,
	// by final status (completed, failed).
	ConsultsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checktrack_consults_resolved_total",
			Help: "Total consults resolved by reconciliation, by status",
		},
		[]string{"status"},
	)

	// DispatchFailures counts fire-and-forget dispatches to the runner
	// that could not be delivered.
	DispatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checktrack_dispatch_failures_total",
			Help: "Total failed dispatches to the external job runner",
		},
	)
)
