package link

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"go.bug.st/serial"
)

// DefaultBaud is the baud rate of serial links without a baud parameter.
const DefaultBaud = 115200

// SerialMode builds the serial mode from the query of a serial URL.
func SerialMode(u *url.URL) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if val := u.Query().Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("invalid baud %q", val)
		}
		mode.BaudRate = baud
	}
	return mode, nil
}

func dialSerial(u *url.URL) (io.ReadWriteCloser, error) {
	device := u.Path
	if device == "" {
		device = u.Opaque
	}
	if device == "" {
		return nil, ErrNoDevice
	}
	mode, err := SerialMode(u)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return port, nil
}

// Ports lists the serial ports of the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
