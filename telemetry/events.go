// Package telemetry carries lifecycle and measurement events from the light
// tasks to their consumers and aggregates activation timings.
package telemetry

import (
	"time"

	"github.com/kelindar/event"

	"traffic-lights/types"
)

// TypeTelemetry is the kelindar/event type identifier for Event.
const TypeTelemetry uint32 = 0x71

// Kind distinguishes telemetry events.
type Kind uint8

const (
	KindTaskStarted Kind = iota + 1
	KindLightOn
	KindLightOff
	KindDebugToggled
	KindMeasurement
)

func (k Kind) String() string {
	switch k {
	case KindTaskStarted:
		return "task_started"
	case KindLightOn:
		return "light_on"
	case KindLightOff:
		return "light_off"
	case KindDebugToggled:
		return "debug_toggled"
	case KindMeasurement:
		return "measurement"
	default:
		return "unknown"
	}
}

// Event is a single telemetry record. Lifecycle and measurement events share
// one type so that a subscriber sees them in publication order.
type Event struct {
	Kind   Kind
	Color  types.Color
	Debug  bool
	Micros uint64
	At     time.Time
}

// Type returns the event type identifier for Event.
func (e Event) Type() uint32 { return TypeTelemetry }

// Bus wraps a kelindar/event dispatcher for telemetry broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// NewBus creates a new telemetry bus.
func NewBus() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to every subscriber. Each subscriber receives events
// in publication order on its own goroutine.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	event.Publish(b.dispatcher, ev)
}

// Subscribe registers handler and returns its unsubscribe function.
func (b *Bus) Subscribe(handler func(Event)) func() {
	return event.Subscribe(b.dispatcher, handler)
}

// TaskStarted reports that the activation task for c is running.
func (b *Bus) TaskStarted(c types.Color) {
	b.Publish(Event{Kind: KindTaskStarted, Color: c})
}

// LightOn reports that c has been driven active.
func (b *Bus) LightOn(c types.Color) {
	b.Publish(Event{Kind: KindLightOn, Color: c})
}

// LightOff reports that c has been driven inactive.
func (b *Bus) LightOff(c types.Color) {
	b.Publish(Event{Kind: KindLightOff, Color: c})
}

// Measured reports the elapsed on-time of one activation.
func (b *Bus) Measured(m types.Measurement) {
	b.Publish(Event{Kind: KindMeasurement, Color: m.Color, Micros: m.Micros})
}

// DebugToggled reports a change of the debug flag.
func (b *Bus) DebugToggled(on bool) {
	b.Publish(Event{Kind: KindDebugToggled, Debug: on})
}
