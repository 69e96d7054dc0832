package lights

import (
	"fmt"
	"strings"

	"traffic-lights/types"
)

// Pin identifies one physical output.
type Pin uint8

const (
	PinRed Pin = iota
	PinGreen
	PinYellow
	PinBuzzer
)

func (p Pin) String() string {
	switch p {
	case PinRed:
		return "red"
	case PinGreen:
		return "green"
	case PinYellow:
		return "yellow"
	case PinBuzzer:
		return "buzzer"
	default:
		return fmt.Sprintf("pin%d", uint8(p))
	}
}

// ParsePin maps an output name to a Pin.
func ParsePin(name string) (Pin, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red":
		return PinRed, nil
	case "green":
		return PinGreen, nil
	case "yellow":
		return PinYellow, nil
	case "buzzer":
		return PinBuzzer, nil
	default:
		return 0, fmt.Errorf("unknown output %q", name)
	}
}

// Driver defines the interface for physical output implementations
type Driver interface {
	// Set drives one output on or off
	Set(pin Pin, on bool) error
	// Clear turns off all outputs
	Clear() error
}

// Wiring maps each color to the outputs that make it visible.
type Wiring map[types.Color][]Pin

// BoardWiring is for boards with only a red and a green LED: yellow is shown
// by lighting both.
func BoardWiring() Wiring {
	return Wiring{
		types.ColorRed:    {PinRed},
		types.ColorYellow: {PinRed, PinGreen},
		types.ColorGreen:  {PinGreen},
	}
}

// TowerWiring is for tower lights with a dedicated yellow lamp.
func TowerWiring() Wiring {
	return Wiring{
		types.ColorRed:    {PinRed},
		types.ColorYellow: {PinYellow},
		types.ColorGreen:  {PinGreen},
	}
}

// WiringByName returns a named wiring.
func WiringByName(name string) (Wiring, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "board":
		return BoardWiring(), nil
	case "tower":
		return TowerWiring(), nil
	default:
		return nil, fmt.Errorf("unknown wiring %q", name)
	}
}

// Pins returns the outputs for c.
func (w Wiring) Pins(c types.Color) []Pin {
	return w[c]
}

// SetAll drives every pin and returns the first error; it keeps going after
// a failure so that a partial fault does not leave other outputs stuck.
func SetAll(d Driver, pins []Pin, on bool) error {
	var firstErr error
	for _, pin := range pins {
		if err := d.Set(pin, on); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("set %s=%t: %w", pin, on, err)
		}
	}
	return firstErr
}
