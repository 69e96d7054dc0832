package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"traffic-lights/lights"
	"traffic-lights/types"
)

// DefaultOnDuration is how long a light stays lit per activation.
const DefaultOnDuration = time.Second

// Sink receives the lifecycle and timing events of light activations.
type Sink interface {
	TaskStarted(c types.Color)
	LightOn(c types.Color)
	LightOff(c types.Color)
	Measured(m types.Measurement)
}

// Resource owns the activation cycle of one color. The triggered flag is
// only read or written with mu held.
type Resource struct {
	color      types.Color
	pins       []lights.Pin
	driver     lights.Driver
	onDuration time.Duration
	gate       *Gate
	sink       Sink
	logger     *slog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	triggered bool
	closed    bool
}

// NewResource creates the monitor for color. pins are the outputs driven
// together for each activation.
func NewResource(color types.Color, pins []lights.Pin, driver lights.Driver, onDuration time.Duration, gate *Gate, sink Sink, logger *slog.Logger) *Resource {
	if onDuration <= 0 {
		onDuration = DefaultOnDuration
	}
	r := &Resource{
		color:      color,
		pins:       pins,
		driver:     driver,
		onDuration: onDuration,
		gate:       gate,
		sink:       sink,
		logger:     logger.With("color", color.String()),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Color returns the color this resource drives.
func (r *Resource) Color() types.Color { return r.color }

// Trigger requests one activation.
func (r *Resource) Trigger() {
	r.mu.Lock()
	r.triggered = true
	r.cond.Signal()
	r.mu.Unlock()
}

// Close stops Run once any activation in progress has finished.
func (r *Resource) Close() {
	r.mu.Lock()
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Run waits for triggers and performs activations until ctx is done or
// Close is called.
func (r *Resource) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, r.Close)
	defer stop()

	r.sink.TaskStarted(r.color)
	for {
		r.mu.Lock()
		for !r.triggered && !r.closed {
			r.cond.Wait()
		}
		if r.closed {
			r.mu.Unlock()
			return
		}
		r.triggered = false
		r.mu.Unlock()

		r.activate(ctx)
	}
}

func (r *Resource) activate(ctx context.Context) {
	start := time.Now()
	if err := lights.SetAll(r.driver, r.pins, true); err != nil {
		r.logger.Warn("Failed to switch light on", "error", err)
	}
	r.sink.LightOn(r.color)

	hold := time.NewTimer(r.onDuration)
	select {
	case <-hold.C:
	case <-ctx.Done():
		hold.Stop()
	}

	// Outputs go off even when shutting down.
	if err := lights.SetAll(r.driver, r.pins, false); err != nil {
		r.logger.Warn("Failed to switch light off", "error", err)
	}
	r.sink.LightOff(r.color)

	r.sink.Measured(types.NewMeasurement(r.color, time.Since(start)))
	r.gate.Post()
}
