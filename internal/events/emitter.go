// Package events carries reward signals out of the competition engine.
// Delivery is fire-and-forget: a dropped signal is acceptable collateral, a
// transition blocked on a slow consumer is not.
package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/strayfire/scrimhub/internal/metrics"
)

type Type string

const (
	CheckIn  Type = "checkin"
	MatchWin Type = "match_win"
)

type Event struct {
	Type         Type      `json:"event"`
	UserID       uuid.UUID `json:"user_id"`
	TournamentID uuid.UUID `json:"tournament_id"`
}

type Emitter interface {
	Emit(ev Event)
}

type Consumer interface {
	Consume(ev Event)
}

// Dispatcher fans events out to its consumers from a single background
// goroutine. Emit never blocks: when the buffer is full the event is dropped
// and counted.
type Dispatcher struct {
	ch        chan Event
	consumers []Consumer

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(buffer int, consumers ...Consumer) *Dispatcher {
	d := &Dispatcher{
		ch:        make(chan Event, buffer),
		consumers: consumers,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.ch {
		for _, c := range d.consumers {
			c.Consume(ev)
		}
	}
}

func (d *Dispatcher) Emit(ev Event) {
	select {
	case d.ch <- ev:
		metrics.EventsEmitted.WithLabelValues(string(ev.Type)).Inc()
	default:
		metrics.EventsDropped.Inc()
		slog.Warn("event dropped, dispatch buffer full", "type", ev.Type, "user_id", ev.UserID)
	}
}

// Close stops accepting events and waits for in-flight ones to be consumed.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.ch)
	})
	<-d.done
}

// Discard swallows every event. Useful where reward signals are irrelevant.
type Discard struct{}

func (Discard) Emit(Event) {}
