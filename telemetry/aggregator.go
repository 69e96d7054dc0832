package telemetry

import (
	"log/slog"
	"slices"
	"sync"

	"traffic-lights/logging"
)

// CycleLength is the number of measurements summed into one total.
const CycleLength = 3

// Total is the report emitted after every CycleLength measurements.
type Total struct {
	Count  int
	Micros uint64
}

// Aggregator consumes telemetry events, logs them and keeps the running sum
// of measurements.
type Aggregator struct {
	bus     *Bus
	logger  *slog.Logger
	verbose *slog.Logger

	mu        sync.Mutex
	count     int
	sum       uint64
	observers []func(Total)

	unsubscribe func()
}

// NewAggregator creates an aggregator. Lifecycle and toggle events are logged
// only while debug is on; measurements and totals are always logged.
func NewAggregator(bus *Bus, debug logging.Switch, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		bus:     bus,
		logger:  logger,
		verbose: logging.Verbose(logger, debug),
	}
}

// OnTotal registers fn to be called with every cycle total.
// Observers must be registered before Start.
func (a *Aggregator) OnTotal(fn func(Total)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Start subscribes to the bus.
func (a *Aggregator) Start() {
	a.unsubscribe = a.bus.Subscribe(a.handle)
	a.logger.Info("Telemetry aggregator started", "cycle_length", CycleLength)
}

// Stop unsubscribes from the bus.
func (a *Aggregator) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Snapshot returns the measurements accumulated since the last total.
func (a *Aggregator) Snapshot() (count int, micros uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count, a.sum
}

func (a *Aggregator) handle(ev Event) {
	switch ev.Kind {
	case KindTaskStarted:
		a.verbose.Debug("Light task started", "color", ev.Color.String())
	case KindLightOn:
		a.verbose.Debug("Light on", "color", ev.Color.String())
	case KindLightOff:
		a.verbose.Debug("Light off", "color", ev.Color.String())
	case KindDebugToggled:
		a.verbose.Debug("Debug mode changed", "enabled", ev.Debug)
	case KindMeasurement:
		a.record(ev)
	}
}

func (a *Aggregator) record(ev Event) {
	a.logger.Info("Activation measured", "task", string(ev.Color.Letter()), "us", ev.Micros)

	a.mu.Lock()
	a.sum += ev.Micros
	a.count++
	if a.count < CycleLength {
		a.mu.Unlock()
		return
	}
	total := Total{Count: a.count, Micros: a.sum}
	a.count = 0
	a.sum = 0
	observers := slices.Clone(a.observers)
	a.mu.Unlock()

	a.logger.Info("Cycle total", "tasks", total.Count, "us", total.Micros)
	for _, fn := range observers {
		fn(total)
	}
}
