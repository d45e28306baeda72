package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arena"

type Metrics struct {
	Connections     prometheus.Gauge
	Waiting         *prometheus.GaugeVec
	ActiveRooms     prometheus.Gauge
	MatchesStarted  *prometheus.CounterVec
	MatchesFinished *prometheus.CounterVec
	RoomsAbandoned  prometheus.Counter
	PersistFailures prometheus.Counter
	InvalidActions  *prometheus.CounterVec
	Rematches       prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Passing nil uses a fresh registry,
// which is what tests want.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections.",
		}),
		Waiting: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_waiting",
			Help:      "Players waiting in the matchmaking slot per game mode.",
		}, []string{"mode"}),
		ActiveRooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms currently registered in the hub.",
		}),
		MatchesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Matches started, rematches included.",
		}, []string{"mode"}),
		MatchesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Matches played to completion.",
		}, []string{"mode", "outcome"}),
		RoomsAbandoned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_abandoned_total",
			Help:      "Rooms torn down because a player disconnected.",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Match results the result sink failed to record.",
		}),
		InvalidActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_actions_total",
			Help:      "Rejected player actions by message type.",
		}, []string{"type"}),
		Rematches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rematches_total",
			Help:      "Rematches agreed by both players.",
		}),
		gatherer: reg,
	}
}

// Handler serves the registry this Metrics was built on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
