package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"traffic-lights/timeparse"
	"traffic-lights/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func feedAll(p *Parser, input string) ([]types.Command, []error) {
	var cmds []types.Command
	var errs []error
	for i := 0; i < len(input); i++ {
		cmd, ok, err := p.Feed(input[i])
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds, errs
}

func TestParser(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []types.Command
		wantErr error
	}{
		{
			name:  "colors any case",
			input: "RyGg",
			want: []types.Command{
				types.Activate(types.ColorRed, types.SourceSerial),
				types.Activate(types.ColorYellow, types.SourceSerial),
				types.Activate(types.ColorGreen, types.SourceSerial),
				types.Activate(types.ColorGreen, types.SourceSerial),
			},
		},
		{
			name:  "debug toggle",
			input: "dD",
			want: []types.Command{
				types.ToggleDebug(types.SourceSerial),
				types.ToggleDebug(types.SourceSerial),
			},
		},
		{
			name:  "one second timer",
			input: "A000001\n",
			want:  []types.Command{types.SetTimer(1, types.SourceSerial)},
		},
		{
			name:  "lower case timer",
			input: "a013000",
			want:  []types.Command{types.SetTimer(5400, types.SourceSerial)},
		},
		{
			name:    "hour out of range",
			input:   "A240000",
			wantErr: timeparse.ErrValue,
		},
		{
			name:    "non digit",
			input:   "A12:000",
			wantErr: timeparse.ErrLength,
		},
		{
			name:  "carriage return aborts time mode",
			input: "A12\rR",
			want:  []types.Command{types.Activate(types.ColorRed, types.SourceSerial)},
		},
		{
			name:  "unknown bytes ignored",
			input: "xz 9!",
		},
		{
			name:  "letters inside time mode are digits",
			input: "A00000RG",
			want:  []types.Command{types.Activate(types.ColorGreen, types.SourceSerial)},
			// "00000R" is rejected, then G activates.
			wantErr: timeparse.ErrLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parser
			cmds, errs := feedAll(&p, tt.input)

			if len(cmds) != len(tt.want) {
				t.Fatalf("commands = %v, want %v", cmds, tt.want)
			}
			for i := range cmds {
				if cmds[i] != tt.want[i] {
					t.Errorf("command %d = %v, want %v", i, cmds[i], tt.want[i])
				}
			}

			if tt.wantErr == nil {
				if len(errs) != 0 {
					t.Errorf("unexpected errors %v", errs)
				}
				return
			}
			if len(errs) != 1 || !errors.Is(errs[0], tt.wantErr) {
				t.Errorf("errors = %v, want %v", errs, tt.wantErr)
			}
			if p.InTimeMode() {
				t.Error("parser left in time mode after a rejection")
			}
		})
	}
}

type sliceQueue struct {
	mu   sync.Mutex
	cmds []types.Command
}

func (q *sliceQueue) Push(cmd types.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cmds = append(q.cmds, cmd)
	return true
}

func (q *sliceQueue) snapshot() []types.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]types.Command(nil), q.cmds...)
}

func TestInputRunsUntilEOF(t *testing.T) {
	src := NewReaderSource(strings.NewReader("R\nA000001\nA240000\nD"))
	defer src.Close()

	q := &sliceQueue{}
	in := NewInput(src, q, time.Millisecond, types.NewDebugFlag(false), discard)
	var rejected []error
	in.OnRejected(func(err error) { rejected = append(rejected, err) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := in.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []types.Command{
		types.Activate(types.ColorRed, types.SourceSerial),
		types.SetTimer(1, types.SourceSerial),
		types.ToggleDebug(types.SourceSerial),
	}
	got := q.snapshot()
	if len(got) != len(want) {
		t.Fatalf("queued %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %v, want %v", i, got[i], want[i])
		}
	}
	if len(rejected) != 1 || !errors.Is(rejected[0], timeparse.ErrValue) {
		t.Errorf("rejected = %v, want one ErrValue", rejected)
	}
}

type failingSource struct{ err error }

func (f failingSource) Poll() (byte, bool, error) { return 0, false, f.err }
func (f failingSource) Close() error              { return nil }

func TestInputReportsSourceError(t *testing.T) {
	boom := errors.New("device gone")
	in := NewInput(failingSource{err: boom}, &sliceQueue{}, 0, types.NewDebugFlag(false), discard)
	if err := in.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want %v", err, boom)
	}
}

type idleSource struct{}

func (idleSource) Poll() (byte, bool, error) { return 0, false, nil }
func (idleSource) Close() error              { return nil }

func TestInputStopsOnCancel(t *testing.T) {
	in := NewInput(idleSource{}, &sliceQueue{}, time.Millisecond, types.NewDebugFlag(false), discard)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

// waitingSource blocks briefly on every poll, like a serial port with a
// read timeout, and delivers its bytes one poll at a time.
type waitingSource struct {
	mu    sync.Mutex
	data  []byte
	polls int
}

func (w *waitingSource) Poll() (byte, bool, error) {
	time.Sleep(time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.polls++
	// Every other poll times out, so the task sees idle reads between bytes.
	if w.polls%2 == 1 || len(w.data) == 0 {
		return 0, false, nil
	}
	b := w.data[0]
	w.data = w.data[1:]
	return b, true, nil
}

func (w *waitingSource) Blocking() bool { return true }
func (w *waitingSource) Close() error   { return nil }

func TestInputDoesNotPauseOnBlockingSource(t *testing.T) {
	src := &waitingSource{data: []byte("RYG")}
	q := &sliceQueue{}
	// The interval would stall the test if it were applied after idle reads.
	in := NewInput(src, q, time.Hour, types.NewDebugFlag(false), discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(q.snapshot()) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("queued %v after 2s; idle polls are being followed by the poll interval", q.snapshot())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
