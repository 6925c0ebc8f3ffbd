package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrimhub_match_transitions_total",
		Help: "Committed match state transitions by action.",
	}, []string{"action"})

	BracketsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrimhub_brackets_generated_total",
		Help: "Brackets generated.",
	})

	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrimhub_events_emitted_total",
		Help: "Reward signal events accepted by the dispatcher.",
	}, []string{"type"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrimhub_events_dropped_total",
		Help: "Reward signal events dropped because the dispatch buffer was full.",
	})
)
