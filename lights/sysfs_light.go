package lights

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// SysfsLight implements Driver using the Linux sysfs LED interface
type SysfsLight struct {
	root string
	leds map[Pin]string // output -> sysfs LED name
}

// NewSysfsLight creates a sysfs driver with board-specific LED names
func NewSysfsLight(leds map[Pin]string) *SysfsLight {
	return newSysfsLightAt(sysfsLEDPath, leds)
}

func newSysfsLightAt(root string, leds map[Pin]string) *SysfsLight {
	return &SysfsLight{root: root, leds: leds}
}

// Set writes the LED brightness. The LED directory is checked on every call
// so that a device that disappears only fails the calls made meanwhile.
func (s *SysfsLight) Set(pin Pin, on bool) error {
	name, ok := s.leds[pin]
	if !ok {
		return fmt.Errorf("output %s not mapped to a sysfs LED", pin)
	}

	ledPath := filepath.Join(s.root, name)
	if _, err := os.Stat(ledPath); err != nil {
		return fmt.Errorf("LED %q not available at %s: %w", name, ledPath, err)
	}

	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

// Clear turns off every mapped LED
func (s *SysfsLight) Clear() error {
	var firstErr error
	for pin := range s.leds {
		if err := s.Set(pin, false); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
