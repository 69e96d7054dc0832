package controller

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"traffic-lights/config"
	"traffic-lights/lights"
	"traffic-lights/logging"
	"traffic-lights/poll"
	"traffic-lights/telemetry"
	"traffic-lights/types"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Node = "test"
	cfg.Lights.Driver = config.DriverMemory
	cfg.Lights.OnDurationMS = 20
	cfg.Serial.Enabled = false
	cfg.Heartbeat.IntervalS = 0
	return cfg
}

func countOn(h []lights.Change, pin lights.Pin) int {
	n := 0
	for _, ch := range h {
		if ch.Pin == pin && ch.On {
			n++
		}
	}
	return n
}

func TestSerialCommandsDriveLights(t *testing.T) {
	logging.SetOutput(io.Discard)

	mem := lights.NewMemory(nil)
	// After a full cycle, a one second timer repeats the last color.
	src := poll.NewReaderSource(strings.NewReader("rygA000001\n"))
	c, err := New(testConfig(), WithDriver(mem), WithInput(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	totals := make(chan telemetry.Total, 2)
	c.aggregator.OnTotal(func(tot telemetry.Total) { totals <- tot })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case tot := <-totals:
		if tot.Count != 3 || tot.Micros < 60_000 {
			t.Errorf("cycle total = %+v, want 3 activations of at least 20ms", tot)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no cycle total")
	}

	deadline := time.Now().Add(5 * time.Second)
	for countOn(mem.History(), lights.PinGreen) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timer did not repeat green; history %+v", mem.History())
		}
		time.Sleep(5 * time.Millisecond)
	}

	status := c.Status()
	if status.TimerTarget != types.ColorGreen || status.TimerDelay != 1 {
		t.Errorf("status = %+v, want green target with 1s delay", status)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}
	for _, pin := range []lights.Pin{lights.PinRed, lights.PinGreen} {
		if mem.On(pin) {
			t.Errorf("%s still on after shutdown", pin)
		}
	}
}

func TestInvalidTimerLeavesTimerUnset(t *testing.T) {
	logging.SetOutput(io.Discard)

	src := poll.NewReaderSource(strings.NewReader("A240000\n"))
	c, err := New(testConfig(), WithDriver(lights.NewMemory(nil)), WithInput(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if s := c.Status(); s.TimerArmed || s.TimerDelay != 0 {
		t.Errorf("timer changed by a rejected value: %+v", s)
	}
}

func TestNewRejectsUnknownWiring(t *testing.T) {
	cfg := testConfig()
	cfg.Lights.Wiring = "spiral"
	if _, err := New(cfg); err == nil {
		t.Error("New should fail for an unknown wiring")
	}
}

func TestTowerDriverDefaultsToTowerWiring(t *testing.T) {
	cfg := testConfig()
	cfg.Lights.Driver = config.DriverTower
	w, err := wiringFor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if pins := w.Pins(types.ColorYellow); len(pins) != 1 || pins[0] != lights.PinYellow {
		t.Errorf("yellow pins = %v, want the dedicated lamp", pins)
	}
}
