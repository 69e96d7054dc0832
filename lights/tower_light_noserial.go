//go:build noserial

package lights

import (
	"errors"
	"log/slog"
)

var errNoSerial = errors.New("serial port support not available in this build")

// TowerLight implements Driver for serial-based tower lights
type TowerLight struct{}

// NewTowerLight creates a new TowerLight instance
func NewTowerLight(port string, baudRate int, logger *slog.Logger) (*TowerLight, error) {
	return nil, errNoSerial
}

func (l *TowerLight) Set(pin Pin, on bool) error {
	return errNoSerial
}

func (l *TowerLight) Clear() error {
	return errNoSerial
}
