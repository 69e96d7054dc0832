package types

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Color identifies one of the indicator lights.
type Color uint8

const (
	ColorNone Color = iota
	ColorRed
	ColorYellow
	ColorGreen
)

// Colors lists the lights in their natural cycle order.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	default:
		return "none"
	}
}

// Letter returns the single-character code used on the serial line.
func (c Color) Letter() byte {
	switch c {
	case ColorRed:
		return 'R'
	case ColorYellow:
		return 'Y'
	case ColorGreen:
		return 'G'
	default:
		return '?'
	}
}

// Valid reports whether c names a real light.
func (c Color) Valid() bool {
	return c == ColorRed || c == ColorYellow || c == ColorGreen
}

// ColorFromLetter maps R/Y/G (any case) to a Color.
func ColorFromLetter(b byte) (Color, bool) {
	switch b {
	case 'R', 'r':
		return ColorRed, true
	case 'Y', 'y':
		return ColorYellow, true
	case 'G', 'g':
		return ColorGreen, true
	default:
		return ColorNone, false
	}
}

// ParseColor accepts a color name or its letter, case-insensitively.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "red", "r":
		return ColorRed, nil
	case "yellow", "y":
		return ColorYellow, nil
	case "green", "g":
		return ColorGreen, nil
	default:
		return ColorNone, fmt.Errorf("unknown color %q", s)
	}
}

// Source records where a command was produced.
type Source string

const (
	SourceSerial Source = "serial"
	SourceButton Source = "button"
	SourceTimer  Source = "timer"
)

// CommandKind tags a Command.
type CommandKind uint8

const (
	CommandActivate CommandKind = iota + 1
	CommandToggleDebug
	CommandSetTimer
)

func (k CommandKind) String() string {
	switch k {
	case CommandActivate:
		return "activate"
	case CommandToggleDebug:
		return "toggle_debug"
	case CommandSetTimer:
		return "set_timer"
	default:
		return "unknown"
	}
}

// Command is a normalized instruction for the dispatcher. Only the field
// matching Kind is meaningful.
type Command struct {
	Kind    CommandKind
	Color   Color
	Seconds uint32
	Source  Source
}

// Activate builds an activation command.
func Activate(c Color, src Source) Command {
	return Command{Kind: CommandActivate, Color: c, Source: src}
}

// ToggleDebug builds a debug toggle command.
func ToggleDebug(src Source) Command {
	return Command{Kind: CommandToggleDebug, Source: src}
}

// SetTimer builds a timer configuration command.
func SetTimer(seconds uint32, src Source) Command {
	return Command{Kind: CommandSetTimer, Seconds: seconds, Source: src}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandActivate:
		return fmt.Sprintf("activate(%s)", c.Color)
	case CommandSetTimer:
		return fmt.Sprintf("set_timer(%ds)", c.Seconds)
	default:
		return c.Kind.String()
	}
}

// Measurement is the timing record of one activation.
type Measurement struct {
	Color  Color
	Micros uint64
}

// NewMeasurement converts an elapsed duration to whole microseconds.
func NewMeasurement(c Color, elapsed time.Duration) Measurement {
	return Measurement{Color: c, Micros: uint64(elapsed.Microseconds())}
}

// DebugFlag is the shared verbose-logging switch.
type DebugFlag struct {
	on atomic.Bool
}

// NewDebugFlag returns a flag with the given initial state.
func NewDebugFlag(on bool) *DebugFlag {
	f := &DebugFlag{}
	f.on.Store(on)
	return f
}

// Enabled reports the current state.
func (f *DebugFlag) Enabled() bool {
	return f.on.Load()
}

// Set overrides the current state.
func (f *DebugFlag) Set(on bool) {
	f.on.Store(on)
}

// Toggle flips the flag and returns the new state.
func (f *DebugFlag) Toggle() bool {
	for {
		old := f.on.Load()
		if f.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
