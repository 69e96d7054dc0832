//go:build noserial

package poll

import "errors"

var errNoSerial = errors.New("serial port support not available in this build")

// SerialSource reads command bytes from a serial port
type SerialSource struct{}

// OpenSerial opens port for polling
func OpenSerial(port string, baud int) (*SerialSource, error) {
	return nil, errNoSerial
}

func (s *SerialSource) Poll() (byte, bool, error) {
	return 0, false, errNoSerial
}

func (s *SerialSource) Blocking() bool { return true }

func (s *SerialSource) Close() error {
	return nil
}
