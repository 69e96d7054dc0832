// Package queue implements the ordered multi-producer, single-consumer
// command queue that feeds the dispatcher.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"traffic-lights/types"
)

// ErrClosed is returned by Pop after Close once the queue is drained.
var ErrClosed = errors.New("queue: closed")

// Stats is a point-in-time view of queue counters.
type Stats struct {
	Depth    int
	Enqueued uint64
	Dropped  uint64
}

// Queue is unbounded unless a limit is set. Push never blocks; commands that
// do not fit are dropped.
type Queue struct {
	mu     sync.Mutex
	items  []types.Command
	closed bool
	limit  int
	ready  chan struct{}

	enqueued atomic.Uint64
	dropped  atomic.Uint64

	logger *slog.Logger
}

// New creates a queue. limit <= 0 means unbounded. logger receives drop
// notices at debug level.
func New(limit int, logger *slog.Logger) *Queue {
	return &Queue{
		limit:  limit,
		ready:  make(chan struct{}, 1),
		logger: logger,
	}
}

// Push appends cmd. It reports false if the command was dropped.
func (q *Queue) Push(cmd types.Command) bool {
	q.mu.Lock()
	if q.closed || (q.limit > 0 && len(q.items) >= q.limit) {
		depth := len(q.items)
		q.mu.Unlock()
		q.dropped.Add(1)
		q.logger.Debug("Command dropped", "command", cmd.String(), "source", cmd.Source, "depth", depth)
		return false
	}
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	q.enqueued.Add(1)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Pop blocks until a command is available, the queue is closed and empty,
// or ctx is done.
func (q *Queue) Pop(ctx context.Context) (types.Command, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			cmd := q.items[0]
			q.items[0] = types.Command{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return cmd, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return types.Command{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return types.Command{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Close stops accepting commands. Pending commands can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Depth:    q.Len(),
		Enqueued: q.enqueued.Load(),
		Dropped:  q.dropped.Load(),
	}
}
