// Package metrics defines and registers all custom Prometheus metrics for the
// auction API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auction"

// ── Bid metrics ───────────────────────────────────────────────────────────────

// BidsAcceptedTotal counts bids committed to a ledger.
var BidsAcceptedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_accepted_total",
		Help:      "Total number of bids accepted by the admission pipeline.",
	},
)

// BidsRejectedTotal counts bids refused by the admission pipeline.
// Label:
//   - reason: the error code returned to the client (e.g. "AUCTION_CLOSED", "CONFLICT")
var BidsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_rejected_total",
		Help:      "Total number of bids rejected, by reason.",
	},
	[]string{"reason"},
)

// BidAdmissionDuration measures one pass through the admission pipeline.
// Label:
//   - outcome: "accepted" or "rejected"
var BidAdmissionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bid_admission_duration_seconds",
		Help:      "Duration of bid admission from request to decision.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Verification metrics ──────────────────────────────────────────────────────

// ReviewsTotal counts completed admin reviews.
// Label:
//   - decision: "approved" or "rejected"
var ReviewsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_reviews_total",
		Help:      "Total number of verification reviews applied, by decision.",
	},
	[]string{"decision"},
)

// ReviewPartialFailuresTotal counts reviews whose status write landed but whose
// approval flag write did not.
var ReviewPartialFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_partial_failures_total",
		Help:      "Total number of reviews that left request status and approval flag out of sync.",
	},
)

// ApprovalsReconciledTotal counts approval flags repaired by reconciliation.
var ApprovalsReconciledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approvals_reconciled_total",
		Help:      "Total number of approval flags set by the reconciliation job.",
	},
)

// ── Event bus metrics ─────────────────────────────────────────────────────────

// EventsQueueDepth tracks the number of events waiting in each dispatcher shard.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventsDeliveredTotal counts subscriber deliveries.
// Label:
//   - type: the event type (e.g. "bid.placed")
var EventsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_delivered_total",
		Help:      "Total number of events delivered to subscribers, by type.",
	},
	[]string{"type"},
)
