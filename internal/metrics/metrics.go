// Package metrics описывает Prometheus метрики BFF.
// Все метрики регистрируются в дефолтном реестре через promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "staymate_bff"

// UpstreamRequestsTotal считает вызовы StayMate API.
// route - шаблон пути (например "/api/bookings/{id}/status"), status - HTTP код или "error".
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests sent to the StayMate API.",
	},
	[]string{"method", "route", "status"},
)

var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of StayMate API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// UpstreamRefreshTotal - попытки обновить access токен после 401.
var UpstreamRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_token_refresh_total",
		Help:      "Access token refresh attempts, by result.",
	},
	[]string{"result"},
)

// MutationsTotal считает мутации представлений.
// kind: "toggle" | "transition"; result: "settled" | "rolled_back" | "failed" | "declined" | "rejected".
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_mutations_total",
		Help:      "View mutations, by page, kind and result.",
	},
	[]string{"page", "kind", "result"},
)

// StaleResponsesTotal - ответы, отброшенные из-за смены поколения запроса.
var StaleResponsesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_stale_responses_total",
		Help:      "Fetch responses discarded because a newer fetch superseded them.",
	},
	[]string{"page"},
)

// UnknownStatusTotal - значения статусов, которых нет в перечислениях.
var UnknownStatusTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unknown_status_total",
		Help:      "Items received with a status outside the known enumeration.",
	},
	[]string{"page"},
)

var ActiveViews = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_views",
		Help:      "Number of page views currently held in memory.",
	},
)

var WSConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Number of open WebSocket connections.",
	},
)
