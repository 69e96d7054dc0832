// Package work runs deferred work submitted from contexts that must not
// allocate or block, such as edge and timer callbacks.
package work

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// DefaultDepth is the number of distinct items that may be pending at once.
const DefaultDepth = 16

// Item is a pre-allocated unit of deferred work. Submitting an item that is
// already pending is a no-op.
type Item struct {
	name    string
	handler func()
	pending atomic.Bool
}

// NewItem allocates an item up front so that Submit never has to.
func NewItem(name string, handler func()) *Item {
	return &Item{name: name, handler: handler}
}

// Name returns the item's label.
func (it *Item) Name() string { return it.name }

// Pending reports whether the item is waiting to run.
func (it *Item) Pending() bool { return it.pending.Load() }

// Queue executes submitted items one at a time on a single worker.
type Queue struct {
	items   chan *Item
	refused atomic.Uint64
	logger  *slog.Logger
}

// NewQueue creates a queue with room for depth pending items.
func NewQueue(depth int, logger *slog.Logger) *Queue {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Queue{
		items:  make(chan *Item, depth),
		logger: logger,
	}
}

// Submit schedules it without blocking. It returns false if the item was
// already pending or the queue is full.
func (q *Queue) Submit(it *Item) bool {
	if !it.pending.CompareAndSwap(false, true) {
		return false
	}
	select {
	case q.items <- it:
		return true
	default:
		it.pending.Store(false)
		q.refused.Add(1)
		return false
	}
}

// Refused returns how many submissions were turned away because the queue was full.
func (q *Queue) Refused() uint64 {
	return q.refused.Load()
}

// Run executes items until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Debug("Work queue started", "depth", cap(q.items))
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-q.items:
			// Cleared before running so the handler's own source can resubmit.
			it.pending.Store(false)
			q.logger.Debug("Running deferred work", "item", it.Name())
			it.handler()
		}
	}
}
