package logging

import (
	"context"
	"log/slog"
)

// fanout writes every record to all sinks. The level decision is made once,
// by the outermost handler, so a record admitted by Verbose is not dropped
// again by a sink that is still at info level.
type fanout struct {
	level    slog.Leveler
	handlers []slog.Handler
}

func newFanout(level slog.Leveler, handlers ...slog.Handler) *fanout {
	return &fanout{level: level, handlers: handlers}
}

func (f *fanout) Enabled(_ context.Context, level slog.Level) bool {
	return level >= f.level.Level()
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &fanout{level: f.level, handlers: handlers}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &fanout{level: f.level, handlers: handlers}
}

// Switch is a runtime on/off toggle such as *types.DebugFlag.
type Switch interface {
	Enabled() bool
}

// Verbose returns a logger whose debug records are emitted exactly while sw
// is on, regardless of the module level. Info and above are unaffected.
func Verbose(base *slog.Logger, sw Switch) *slog.Logger {
	return slog.New(&verboseHandler{inner: base.Handler(), sw: sw})
}

type verboseHandler struct {
	inner slog.Handler
	sw    Switch
}

func (h *verboseHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < slog.LevelInfo {
		return h.sw.Enabled()
	}
	return h.inner.Enabled(ctx, level)
}

func (h *verboseHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *verboseHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &verboseHandler{inner: h.inner.WithAttrs(attrs), sw: h.sw}
}

func (h *verboseHandler) WithGroup(name string) slog.Handler {
	return &verboseHandler{inner: h.inner.WithGroup(name), sw: h.sw}
}
