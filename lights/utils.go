package lights

import (
	"fmt"
	"io"
)

// sendCommand sends a command byte to the serial port
func sendCommand(port io.Writer, cmd byte) error {
	_, err := port.Write([]byte{cmd})
	if err != nil {
		return fmt.Errorf("failed to send command 0x%02x: %w", cmd, err)
	}
	return nil
}
