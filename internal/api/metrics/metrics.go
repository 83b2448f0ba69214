// Package metrics defines and registers all custom Prometheus metrics for the
// voting coordinator. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto; /metrics is served by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voting"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// SessionsStartedTotal counts sessions opened.
var SessionsStartedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of voting sessions started.",
	},
)

// SessionsStoppedTotal counts completed stop transitions.
// Label:
//   - reason: "manual", "expired" or "recovered"
var SessionsStoppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_stopped_total",
		Help:      "Total number of voting sessions stopped, by reason.",
	},
	[]string{"reason"},
)

// LifecycleWarningsTotal counts rejected or no-op lifecycle calls.
// Label:
//   - kind: "validation" or "conflict"
var LifecycleWarningsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_warnings_total",
		Help:      "Total number of lifecycle requests rejected before any write.",
	},
	[]string{"kind"},
)

// StoreRetriesTotal counts retried store writes that guard the single-active invariant.
// Label:
//   - op: "start" or "stop"
var StoreRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_retries_total",
		Help:      "Total number of retried lifecycle write sequences.",
	},
	[]string{"op"},
)

// InvariantFailuresTotal counts lifecycle sequences abandoned after retries ran out.
var InvariantFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invariant_failures_total",
		Help:      "Lifecycle write sequences that exhausted their retries.",
	},
)

// ActiveSession is 1 while a session is running.
var ActiveSession = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_session",
		Help:      "1 while a voting session is active, 0 otherwise.",
	},
)

// SessionRemainingSeconds mirrors the advisory countdown.
var SessionRemainingSeconds = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_remaining_seconds",
		Help:      "Seconds left in the active session.",
	},
)

// ── Tally metrics ─────────────────────────────────────────────────────────────

// LedgerEntries tracks the size of the active session's vote ledger.
var LedgerEntries = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ledger_entries",
		Help:      "Number of votes in the active session's ledger.",
	},
)

// AnomalousVotesTotal counts newly reported votes for non-candidates.
var AnomalousVotesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomalous_votes_total",
		Help:      "Votes referencing a user outside the session's candidate set.",
	},
)

// LateVotesTotal counts votes that landed for a session no longer being watched.
var LateVotesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "late_votes_total",
		Help:      "Vote writes observed for a session that is not the running one.",
	},
)

// TallyRecomputeErrorsTotal counts recomputes that fell back to a stale snapshot.
var TallyRecomputeErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tally_recompute_errors_total",
		Help:      "Live tally recomputations that failed and left a stale snapshot.",
	},
)

// ── Event loop metrics ────────────────────────────────────────────────────────

// EventsQueueDepth tracks the number of store changes waiting in the loop.
var EventsQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of store change events pending in the event loop.",
	},
)

// EventProcessingDuration measures how long a single change takes to handle.
// Label:
//   - root: first path segment of the change ("votes", "users", "tick", …)
var EventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of store change handling from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"root"},
)

// EventsErrorsTotal counts change handlers that returned an error.
// Label:
//   - root: first path segment of the change
var EventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of store change events whose handler failed.",
	},
	[]string{"root"},
)

// ── Registry metrics ──────────────────────────────────────────────────────────

// RegistrationsTotal counts card-scan handshake outcomes.
// Label:
//   - result: "registered", "duplicate_card", "removed"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Card registration handshake outcomes.",
	},
	[]string{"result"},
)

// LiveClients tracks connected websocket dashboards.
var LiveClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_clients",
		Help:      "Number of dashboards connected to the live tally stream.",
	},
)
