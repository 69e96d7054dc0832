package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
)

// resetForTest clears package state and routes output to buf.
func resetForTest(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevels = make(map[string]*slog.LevelVar)
	globalConfig = Config{Level: "info", Format: "text"}
	output = buf
	useJournal = func() bool { return false }
	mutex.Unlock()
}

type toggle struct{ on atomic.Bool }

func (s *toggle) Enabled() bool { return s.on.Load() }

func TestModuleLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"dispatch":  "debug",
			"telemetry": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"dispatch", true, true, true},
		{"telemetry", false, false, true},
		{"poll", false, true, true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			h := GetLogger(tt.module).Handler()
			if got := h.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := h.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := h.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestReloadChangesExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)
	Initialize(Config{Level: "info"})

	logger := GetLogger("timer")
	logger.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug record emitted at info level")
	}

	Reload(Config{Level: "info", Modules: map[string]string{"timer": "debug"}})
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug record missing after reload: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "module=timer") {
		t.Errorf("module attribute missing: %q", buf.String())
	}
}

func TestVerboseFollowsSwitch(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)
	Initialize(Config{Level: "info"})

	sw := &toggle{}
	logger := Verbose(GetLogger("dispatch"), sw)

	logger.Debug("quiet")
	if strings.Contains(buf.String(), "quiet") {
		t.Fatal("debug record emitted while switch is off")
	}

	sw.on.Store(true)
	logger.Debug("loud", "color", "red")
	if !strings.Contains(buf.String(), "loud") || !strings.Contains(buf.String(), "color=red") {
		t.Fatalf("debug record missing while switch is on: %q", buf.String())
	}

	sw.on.Store(false)
	logger.Info("always")
	if !strings.Contains(buf.String(), "always") {
		t.Error("info record must not depend on the switch")
	}
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	var a, b bytes.Buffer
	level := &slog.LevelVar{}
	f := newFanout(level,
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: level}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: level}),
	)
	logger := Verbose(slog.New(f), &toggle{})
	logger.Info("both")
	if !strings.Contains(a.String(), "both") || !strings.Contains(b.String(), "both") {
		t.Errorf("fanout missed a sink: a=%q b=%q", a.String(), b.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
