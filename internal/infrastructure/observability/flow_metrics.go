package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry scraped at /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// AssignmentsRecomputed counts full queue redistributions per department.
var AssignmentsRecomputed = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "flow",
	Name:      "assignments_recomputed_total",
	Help:      "Number of times a department queue was redistributed across active doctors",
}, []string{"department"})

// UnassignedPatients is the number of waiting patients left without a doctor after the last recompute.
var UnassignedPatients = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "flow",
	Name:      "unassigned_patients",
	Help:      "Waiting patients without an assigned doctor after the last redistribution",
}, []string{"department"})

// ImpactActions counts recommended actions produced by emergency impact analysis.
var ImpactActions = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "flow",
	Name:      "impact_actions_total",
	Help:      "Recommended actions produced by emergency impact analysis",
}, []string{"action"})

// StaleRefreshesDiscarded counts refresh results dropped because a newer refresh already landed.
var StaleRefreshesDiscarded = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "flow",
	Name:      "stale_refreshes_discarded_total",
	Help:      "Board refresh results discarded because a newer refresh completed first",
}, []string{"department"})

// PatchFailures counts optimistic board patches whose persistence failed.
var PatchFailures = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "flow",
	Name:      "patch_failures_total",
	Help:      "Optimistic board changes whose persistence failed",
}, []string{"operation"})

// TriageSource counts triage results by the classifier that produced them.
var TriageSource = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "flow",
	Name:      "triage_results_total",
	Help:      "Triage classifications by source",
}, []string{"source"})

// MetricsHandler serves the flow registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
