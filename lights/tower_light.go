//go:build !noserial

package lights

import (
	"fmt"
	"log/slog"

	"github.com/tarm/serial"
)

// TowerLight implements Driver for serial-based tower lights
type TowerLight struct {
	port     string
	baudRate int
	logger   *slog.Logger
}

// NewTowerLight creates a new TowerLight instance. The port is opened per
// call, so a missing device only fails the calls made while it is absent.
func NewTowerLight(port string, baudRate int, logger *slog.Logger) (*TowerLight, error) {
	return &TowerLight{
		port:     port,
		baudRate: baudRate,
		logger:   logger,
	}, nil
}

func (l *TowerLight) openPort() (*serial.Port, error) {
	c := &serial.Config{
		Name: l.port,
		Baud: l.baudRate,
	}
	return serial.OpenPort(c)
}

// Set switches one lamp.
func (l *TowerLight) Set(pin Pin, on bool) error {
	cmdByte, ok := towerCommand(pin, on)
	if !ok {
		return fmt.Errorf("unsupported output: %s", pin)
	}

	s, err := l.openPort()
	if err != nil {
		return fmt.Errorf("open %s: %w", l.port, err)
	}
	defer l.closePort(s)

	return sendCommand(s, cmdByte)
}

// Clear turns off all lamps and the buzzer.
func (l *TowerLight) Clear() error {
	s, err := l.openPort()
	if err != nil {
		return fmt.Errorf("open %s: %w", l.port, err)
	}
	defer l.closePort(s)

	for _, cmd := range clearCommands {
		if err := sendCommand(s, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (l *TowerLight) closePort(s *serial.Port) {
	if err := s.Close(); err != nil {
		l.logger.Warn("Error closing serial port", "port", l.port, "error", err)
	}
}
