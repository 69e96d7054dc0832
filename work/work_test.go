package work

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmitRunsHandler(t *testing.T) {
	q := NewQueue(4, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	ran := make(chan string, 2)
	a := NewItem("a", func() { ran <- "a" })
	b := NewItem("b", func() { ran <- "b" })

	if !q.Submit(a) || !q.Submit(b) {
		t.Fatal("Submit() refused on an empty queue")
	}

	for _, want := range []string{"a", "b"} {
		select {
		case got := <-ran:
			if got != want {
				t.Fatalf("ran %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("item %q did not run", want)
		}
	}
}

func TestSubmitCoalescesPendingItem(t *testing.T) {
	q := NewQueue(4, discardLogger())
	it := NewItem("btn", func() {})

	if !q.Submit(it) {
		t.Fatal("first Submit() should succeed")
	}
	if q.Submit(it) {
		t.Fatal("second Submit() of a pending item should be a no-op")
	}
	if len(q.items) != 1 {
		t.Fatalf("queue holds %d items, want 1", len(q.items))
	}
}

func TestSubmitRefusesWhenFull(t *testing.T) {
	q := NewQueue(1, discardLogger())
	a := NewItem("a", func() {})
	b := NewItem("b", func() {})

	q.Submit(a)
	if q.Submit(b) {
		t.Fatal("Submit() should refuse when the queue is full")
	}
	if b.Pending() {
		t.Error("refused item must not stay pending")
	}
	if q.Refused() != 1 {
		t.Errorf("Refused() = %d, want 1", q.Refused())
	}
}

func TestItemResubmittableAfterRun(t *testing.T) {
	q := NewQueue(2, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	count := make(chan struct{}, 4)
	it := NewItem("timer", func() { count <- struct{}{} })

	for i := 0; i < 3; i++ {
		for !q.Submit(it) {
			time.Sleep(time.Millisecond)
		}
		select {
		case <-count:
		case <-time.After(time.Second):
			t.Fatalf("run %d did not happen", i)
		}
	}
}

func TestRunLogsItemName(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := NewQueue(4, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	it := NewItem("timer-expiry", func() { close(done) })
	q.Submit(it)
	go q.Run(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("item did not run")
	}
	if !strings.Contains(out.String(), "item=timer-expiry") {
		t.Errorf("log missing item name: %q", out.String())
	}
}
