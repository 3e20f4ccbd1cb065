// Package serialport opens lane serial endpoints through go.bug.st/serial.
package serialport

import (
	"fmt"
	"sort"

	"go.bug.st/serial"

	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
)

// Driver implements ports.SerialOpener and ports.PortLister for the host's serial devices.
type Driver struct{}

// NewDriver returns the host serial driver.
func NewDriver() *Driver {
	return &Driver{}
}

// Open opens the endpoint with its framing. Reads block until data arrives.
func (d *Driver) Open(ep models.SerialEndpoint) (ports.SerialPort, error) {
	mode, err := Mode(ep)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(ep.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ep.Path, err)
	}
	return port, nil
}

// ListPorts returns the sorted list of serial devices known to the OS.
func (d *Driver) ListPorts() ([]string, error) {
	list, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(list)
	return list, nil
}

// Mode translates an endpoint into the driver's framing parameters.
func Mode(ep models.SerialEndpoint) (*serial.Mode, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: ep.BaudRate,
		DataBits: ep.ByteSize,
	}

	switch ep.Parity {
	case models.ParityNone:
		mode.Parity = serial.NoParity
	case models.ParityEven:
		mode.Parity = serial.EvenParity
	case models.ParityOdd:
		mode.Parity = serial.OddParity
	case models.ParityMark:
		mode.Parity = serial.MarkParity
	case models.ParitySpace:
		mode.Parity = serial.SpaceParity
	}

	if ep.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	} else {
		mode.StopBits = serial.OneStopBit
	}
	return mode, nil
}
