package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var FetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobsync_fetch_requests_total",
	Help: "Backend requests by resource and outcome",
}, []string{"resource", "outcome"})

var FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "jobsync_fetch_duration_seconds",
	Help:    "Backend request latency",
	Buckets: prometheus.DefBuckets,
}, []string{"resource"})

var PollCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobsync_poll_cycles_total",
	Help: "Completed poll cycles by result",
}, []string{"result"})

var PollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "jobsync_poll_cycle_duration_seconds",
	Help:    "Duration of a full poll cycle",
	Buckets: prometheus.DefBuckets,
})

var DegradedJobsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "jobsync_degraded_jobs_total",
	Help: "Jobs merged without executions because the execution fetch failed",
})

var OptimisticActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobsync_optimistic_actions_total",
	Help: "Optimistic user actions by kind and outcome",
}, []string{"kind", "outcome"})

var JobsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "jobsync_jobs",
	Help: "Merged jobs in the current snapshot",
})

var UnreadNotificationsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "jobsync_unread_notifications",
	Help: "Unread notifications in the current snapshot",
})

// Outcome labels
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeBusy       = "busy"
	OutcomeRolledBack = "rolled_back"
)
