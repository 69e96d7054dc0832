//go:build !noserial

package poll

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// serialReadTimeout bounds each read. tarm/serial rounds timeouts up to
// whole deciseconds, so anything shorter would still block for 100 ms.
const serialReadTimeout = 100 * time.Millisecond

// SerialSource reads command bytes from a serial port.
type SerialSource struct {
	name string
	port *serial.Port
	buf  [1]byte
}

// OpenSerial opens port for polling.
func OpenSerial(port string, baud int) (*SerialSource, error) {
	c := &serial.Config{
		Name:        port,
		Baud:        baud,
		ReadTimeout: serialReadTimeout,
	}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	return &SerialSource{name: port, port: p}, nil
}

// Poll reads at most one byte. A read that times out yields ok=false.
func (s *SerialSource) Poll() (byte, bool, error) {
	n, err := s.port.Read(s.buf[:])
	if n == 1 {
		return s.buf[0], true, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("read %s: %w", s.name, err)
}

// Blocking reports that an idle Poll already waits for the read timeout.
func (s *SerialSource) Blocking() bool { return true }

// Close closes the port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
