// Package dispatch turns queued commands into strictly serialized light
// activations.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"traffic-lights/logging"
	"traffic-lights/queue"
	"traffic-lights/types"
)

var (
	// ErrUnknownColor is returned for an activation of a color with no resource.
	ErrUnknownColor = errors.New("dispatch: unknown color")
	// ErrUnknownCommand is returned for a command of an unrecognized kind.
	ErrUnknownCommand = errors.New("dispatch: unknown command")
)

// Source supplies commands in order.
type Source interface {
	Pop(ctx context.Context) (types.Command, error)
}

// TimerControl is the part of the timer scheduler driven by commands.
type TimerControl interface {
	SetTarget(c types.Color)
	Set(seconds uint32)
}

// DebugSink is notified of debug flag changes.
type DebugSink interface {
	DebugToggled(on bool)
}

// Config holds the collaborators of a Dispatcher.
type Config struct {
	Source    Source
	Gate      *Gate
	Resources []*Resource
	Timer     TimerControl
	Debug     *types.DebugFlag
	Events    DebugSink
	Logger    *slog.Logger
}

// Dispatcher is the single consumer of the command queue.
type Dispatcher struct {
	source    Source
	gate      *Gate
	resources map[types.Color]*Resource
	timer     TimerControl
	debug     *types.DebugFlag
	events    DebugSink
	logger    *slog.Logger
	verbose   *slog.Logger
	observers []func(types.Command)
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Debug == nil {
		cfg.Debug = types.NewDebugFlag(false)
	}
	d := &Dispatcher{
		source:    cfg.Source,
		gate:      cfg.Gate,
		resources: make(map[types.Color]*Resource, len(cfg.Resources)),
		timer:     cfg.Timer,
		debug:     cfg.Debug,
		events:    cfg.Events,
		logger:    cfg.Logger,
		verbose:   logging.Verbose(cfg.Logger, cfg.Debug),
	}
	for _, r := range cfg.Resources {
		d.resources[r.Color()] = r
	}
	return d
}

// OnDispatch registers fn to be called for every accepted command.
// Observers must be registered before Run.
func (d *Dispatcher) OnDispatch(fn func(types.Command)) {
	d.observers = append(d.observers, fn)
}

// Run consumes commands until the source is closed or ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Dispatcher started", "lights", len(d.resources))
	for {
		cmd, err := d.source.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				d.logger.Info("Dispatcher stopped")
				return nil
			}
			return fmt.Errorf("dispatch: pop command: %w", err)
		}

		if err := d.Dispatch(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				d.logger.Info("Dispatcher stopped")
				return nil
			}
			d.verbose.Debug("Command discarded", "command", cmd.String(), "source", cmd.Source, "error", err)
		}
	}
}

// Dispatch applies one command. For an activation it returns only after the
// light has completed its cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd types.Command) error {
	switch cmd.Kind {
	case types.CommandToggleDebug:
		on := d.debug.Toggle()
		if d.events != nil {
			d.events.DebugToggled(on)
		}
	case types.CommandSetTimer:
		d.timer.Set(cmd.Seconds)
	case types.CommandActivate:
		r, ok := d.resources[cmd.Color]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColor, cmd.Color)
		}
		d.timer.SetTarget(cmd.Color)
		d.notify(cmd)
		d.verbose.Debug("dispatch", "color", cmd.Color.String(), "source", cmd.Source)
		r.Trigger()
		return d.gate.Wait(ctx)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownCommand, cmd.Kind)
	}
	d.notify(cmd)
	return nil
}

func (d *Dispatcher) notify(cmd types.Command) {
	for _, fn := range d.observers {
		fn(cmd)
	}
}
