// Package buttons turns button edges into activation commands. Edge handlers
// only submit pre-allocated deferred work; the work enqueues the command.
package buttons

import (
	"fmt"
	"log/slog"

	"traffic-lights/logging"
	"traffic-lights/types"
	"traffic-lights/work"
)

// Enqueuer accepts commands without blocking.
type Enqueuer interface {
	Push(cmd types.Command) bool
}

// Submitter schedules deferred work without blocking.
type Submitter interface {
	Submit(it *work.Item) bool
}

// EdgeSource calls handler on every rising edge of line.
type EdgeSource interface {
	Register(line int, handler func()) error
}

// Bank holds one work item per color.
type Bank struct {
	items   map[types.Color]*work.Item
	work    Submitter
	queue   Enqueuer
	verbose *slog.Logger
}

// NewBank creates the work items for every color.
func NewBank(q Enqueuer, w Submitter, debug logging.Switch, logger *slog.Logger) *Bank {
	b := &Bank{
		items:   make(map[types.Color]*work.Item, len(types.Colors)),
		work:    w,
		queue:   q,
		verbose: logging.Verbose(logger, debug),
	}
	for _, c := range types.Colors {
		b.items[c] = work.NewItem("button-"+c.String(), b.pressed(c))
	}
	return b
}

// Handler returns the edge handler for c. It never allocates or blocks.
func (b *Bank) Handler(c types.Color) func() {
	it := b.items[c]
	if it == nil {
		return func() {}
	}
	return func() { b.work.Submit(it) }
}

// Attach registers the handler of each color on its line.
func (b *Bank) Attach(src EdgeSource, lines map[types.Color]int) error {
	for _, c := range types.Colors {
		line, ok := lines[c]
		if !ok {
			continue
		}
		if err := src.Register(line, b.Handler(c)); err != nil {
			return fmt.Errorf("attach %s button on line %d: %w", c, line, err)
		}
	}
	return nil
}

func (b *Bank) pressed(c types.Color) func() {
	return func() {
		if b.queue.Push(types.Activate(c, types.SourceButton)) {
			b.verbose.Debug("BTN -> " + string(c.Letter()))
		}
	}
}
