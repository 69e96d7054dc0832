// Package timer implements the single-shot countdown that re-activates the
// most recently requested color.
package timer

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

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

// Scheduler holds the timer state: a target color and the last configured
// delay. Expiry only submits a pre-allocated work item; the item enqueues
// the activation.
type Scheduler struct {
	target atomic.Uint32
	delay  atomic.Uint32
	armed  atomic.Bool
	gen    atomic.Uint64
	fired  atomic.Uint64

	mu    sync.Mutex
	timer *time.Timer

	item    *work.Item
	work    Submitter
	queue   Enqueuer
	logger  *slog.Logger
	verbose *slog.Logger
	unit    time.Duration
}

// New creates a scheduler targeting initial. Nothing runs until Set.
func New(initial types.Color, q Enqueuer, w Submitter, debug logging.Switch, logger *slog.Logger) *Scheduler {
	if !initial.Valid() {
		initial = types.ColorRed
	}
	s := &Scheduler{
		work:    w,
		queue:   q,
		logger:  logger,
		verbose: logging.Verbose(logger, debug),
		unit:    time.Second,
	}
	s.target.Store(uint32(initial))
	s.item = work.NewItem("timer", s.expired)
	return s
}

// SetTarget records the color the next expiry activates.
func (s *Scheduler) SetTarget(c types.Color) {
	if c.Valid() {
		s.target.Store(uint32(c))
	}
}

// Target returns the color the next expiry activates.
func (s *Scheduler) Target() types.Color {
	return types.Color(s.target.Load())
}

// Delay returns the last configured delay in seconds.
func (s *Scheduler) Delay() uint32 {
	return s.delay.Load()
}

// Armed reports whether a countdown is pending.
func (s *Scheduler) Armed() bool {
	return s.armed.Load()
}

// Set cancels any pending countdown and starts a new one of seconds.
func (s *Scheduler) Set(seconds uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen.Add(1)
	s.delay.Store(seconds)
	s.armed.Store(true)
	s.timer = time.AfterFunc(time.Duration(seconds)*s.unit, func() { s.fire(gen) })

	s.logger.Info("Timer set", "seconds", seconds, "target", s.Target().String())
}

// Stop cancels any pending countdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.Add(1)
	s.armed.Store(false)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs on the timer goroutine and must not block.
func (s *Scheduler) fire(gen uint64) {
	if s.gen.Load() != gen {
		return
	}
	s.armed.Store(false)
	s.fired.Store(gen)
	s.work.Submit(s.item)
}

// expired runs as deferred work. An expiry overtaken by Set or Stop while
// its work was pending is dropped.
func (s *Scheduler) expired() {
	if s.fired.Load() != s.gen.Load() {
		s.verbose.Debug("Stale timer expiry dropped")
		return
	}
	target := s.Target()
	if !s.queue.Push(types.Activate(target, types.SourceTimer)) {
		return
	}
	s.verbose.Debug("TIMER -> "+string(target.Letter()), "wait_s", s.Delay())
}
