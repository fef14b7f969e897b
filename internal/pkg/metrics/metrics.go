// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace_client"

// ── Reconciliation metrics ──────────────────────────────────────────────────

// MutationsTotal counts optimistic mutations by outcome.
// Labels:
//   - resource: "cart" or "orders"
//   - kind: cart mutation kind, or "status:<target>" for orders
//   - outcome: "committed", "rolled_back", or "superseded"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of optimistic mutations, by resource, kind and outcome.",
	},
	[]string{"resource", "kind", "outcome"},
)

// ReloadsTotal counts authoritative reloads.
// Labels:
//   - resource: "cart" or "orders"
//   - outcome: "applied", "stale", or "failed"
var ReloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reloads_total",
		Help:      "Total number of reloads from the remote store, by outcome.",
	},
	[]string{"resource", "outcome"},
)

// ── Navigation metrics ──────────────────────────────────────────────────────

// TransitionsTotal counts accepted view transitions by destination view.
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigation_transitions_total",
		Help:      "Total number of accepted view transitions, by destination view.",
	},
	[]string{"to"},
)

// TransitionRejectionsTotal counts rejected transitions.
// Label:
//   - reason: "unauthorized", "unauthenticated", "invalid_role" or "invalid"
var TransitionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigation_rejections_total",
		Help:      "Total number of rejected view transitions, by reason.",
	},
	[]string{"reason"},
)

// ── Gateway metrics ─────────────────────────────────────────────────────────

// GatewayRequestDuration measures remote API round trips.
// Labels:
//   - method: HTTP method
//   - status: HTTP status code, or "transport_error"
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of remote API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)
