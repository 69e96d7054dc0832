// Package poll reads the serial command stream and feeds the command queue.
package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"traffic-lights/logging"
	"traffic-lights/types"
)

// DefaultInterval is the pause between polls when no byte is waiting.
const DefaultInterval = 5 * time.Millisecond

// Enqueuer accepts commands without blocking.
type Enqueuer interface {
	Push(cmd types.Command) bool
}

// Input is the serial-input task.
type Input struct {
	source   ByteSource
	queue    Enqueuer
	interval time.Duration
	logger   *slog.Logger
	verbose  *slog.Logger
	parser   Parser
	rejected func(error)
}

// NewInput creates the task. interval <= 0 selects DefaultInterval.
func NewInput(source ByteSource, q Enqueuer, interval time.Duration, debug logging.Switch, logger *slog.Logger) *Input {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Input{
		source:   source,
		queue:    q,
		interval: interval,
		logger:   logger,
		verbose:  logging.Verbose(logger, debug),
	}
}

// OnRejected registers fn to be called for every rejected time value.
func (in *Input) OnRejected(fn func(error)) {
	in.rejected = fn
}

// Run polls the source until ctx is done or the source is exhausted.
func (in *Input) Run(ctx context.Context) error {
	pause := in.interval
	if b, ok := in.source.(blocker); ok && b.Blocking() {
		pause = 0
	}
	in.logger.Info("Serial input started", "interval", pause)
	for {
		drained, err := in.drain()
		if err != nil {
			if errors.Is(err, io.EOF) {
				in.logger.Info("Serial input closed")
				return nil
			}
			return err
		}
		if !drained || pause == 0 {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pause):
		}
	}
}

// drain handles waiting bytes. It returns true once the source is empty.
func (in *Input) drain() (bool, error) {
	for i := 0; i < 64; i++ {
		b, ok, err := in.source.Poll()
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		in.handle(b)
	}
	return false, nil
}

func (in *Input) handle(b byte) {
	pending := in.parser.Pending()
	cmd, ok, err := in.parser.Feed(b)
	if err != nil {
		in.logger.Warn("Invalid time", "value", pending+string(b), "error", err)
		if in.rejected != nil {
			in.rejected(err)
		}
		return
	}
	if !ok {
		return
	}
	if !in.queue.Push(cmd) {
		return
	}
	switch cmd.Kind {
	case types.CommandActivate:
		in.verbose.Debug("UART -> " + string(cmd.Color.Letter()))
	case types.CommandSetTimer:
		in.verbose.Debug("UART -> timer", "seconds", cmd.Seconds)
	case types.CommandToggleDebug:
		in.verbose.Debug("UART -> debug toggle")
	}
}
