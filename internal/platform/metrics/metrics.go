package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the process registry with the governance counters exposed
// on /metrics. Counters are incremented at the bus boundary so modules stay
// free of instrumentation plumbing.
type Metrics struct {
	Registry *prometheus.Registry

	EventsPublished *prometheus.CounterVec
	VotesCast       prometheus.Counter
	RoundsOpened    prometheus.Counter
	DecisionsFixed  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collegium_events_published_total",
			Help: "Events published to the bus, by topic.",
		}, []string{"topic"}),
		VotesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collegium_votes_cast_total",
			Help: "Votes accepted into voting rounds.",
		}),
		RoundsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collegium_rounds_opened_total",
			Help: "Voting rounds opened.",
		}),
		DecisionsFixed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collegium_decisions_fixed_total",
			Help: "Decisions fixed on voting rounds.",
		}),
	}
	registry.MustRegister(m.EventsPublished, m.VotesCast, m.RoundsOpened, m.DecisionsFixed)
	return m
}

// ObservePublish maps bus topics onto the domain counters.
func (m *Metrics) ObservePublish(topic string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(topic).Inc()
	switch topic {
	case "vote.cast":
		m.VotesCast.Inc()
	case "round.opened":
		m.RoundsOpened.Inc()
	case "decision.fixed":
		m.DecisionsFixed.Inc()
	}
}
