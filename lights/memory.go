package lights

import (
	"log/slog"
	"sync"
	"time"
)

// Change records one output transition.
type Change struct {
	Pin Pin
	On  bool
	At  time.Time
}

// Memory implements Driver without hardware. It keeps the current level of
// each output and the ordered history of changes.
type Memory struct {
	mu      sync.Mutex
	state   map[Pin]bool
	history []Change
	fail    map[Pin]error
	logger  *slog.Logger
}

// NewMemory creates an in-memory driver. logger may be nil.
func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		state:  make(map[Pin]bool),
		fail:   make(map[Pin]error),
		logger: logger,
	}
}

// Set records the new level, or returns the failure injected for pin.
func (m *Memory) Set(pin Pin, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[pin]; err != nil {
		return err
	}
	m.state[pin] = on
	m.history = append(m.history, Change{Pin: pin, On: on, At: time.Now()})
	if m.logger != nil {
		m.logger.Debug("Output changed (memory driver)", "pin", pin.String(), "on", on)
	}
	return nil
}

// Clear turns every known output off.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pin := range m.state {
		m.state[pin] = false
	}
	return nil
}

// FailPin makes every Set on pin return err. A nil err removes the fault.
func (m *Memory) FailPin(pin Pin, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, pin)
		return
	}
	m.fail[pin] = err
}

// On reports the current level of pin.
func (m *Memory) On(pin Pin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[pin]
}

// History returns a copy of all recorded changes.
func (m *Memory) History() []Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Change, len(m.history))
	copy(out, m.history)
	return out
}
