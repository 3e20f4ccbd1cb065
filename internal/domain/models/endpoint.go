package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Parity is the serial parity mode, using the single-letter codes of the "8N1" notation.
type Parity byte

const (
	ParityNone  Parity = 'N'
	ParityEven  Parity = 'E'
	ParityOdd   Parity = 'O'
	ParityMark  Parity = 'M'
	ParitySpace Parity = 'S'
)

// SerialEndpoint describes one physical serial link and its framing.
// It is a value type: once built it is only read.
type SerialEndpoint struct {
	Path     string // Device path, e.g. "/dev/ttyUSB0"
	BaudRate int    // e.g. 38400
	ByteSize int    // 5..8
	Parity   Parity // N/E/O/M/S
	StopBits int    // 1 or 2
	Enabled  bool   // Disabled endpoints are never opened
}

// String returns "path@baud/8N1" for log lines.
func (e SerialEndpoint) String() string {
	return fmt.Sprintf("%s@%d/%s", e.Path, e.BaudRate, e.Framing())
}

// Framing renders byte size, parity and stop bits as "8N1".
func (e SerialEndpoint) Framing() string {
	return fmt.Sprintf("%d%c%d", e.ByteSize, e.Parity, e.StopBits)
}

// Validate checks that the endpoint can be handed to the serial driver.
func (e SerialEndpoint) Validate() error {
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("serial endpoint: empty device path")
	}
	if e.BaudRate <= 0 {
		return fmt.Errorf("serial endpoint %s: invalid baud rate %d", e.Path, e.BaudRate)
	}
	if e.ByteSize < 5 || e.ByteSize > 8 {
		return fmt.Errorf("serial endpoint %s: invalid byte size %d", e.Path, e.ByteSize)
	}
	switch e.Parity {
	case ParityNone, ParityEven, ParityOdd, ParityMark, ParitySpace:
	default:
		return fmt.Errorf("serial endpoint %s: invalid parity %q", e.Path, string(e.Parity))
	}
	if e.StopBits != 1 && e.StopBits != 2 {
		return fmt.Errorf("serial endpoint %s: invalid stop bits %d", e.Path, e.StopBits)
	}
	return nil
}

// ParseFraming parses a framing string such as "8N1" or "7E2".
func ParseFraming(s string) (byteSize int, parity Parity, stopBits int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return 0, 0, 0, fmt.Errorf("serial setting %q: want 3 characters like 8N1", s)
	}
	byteSize, err = strconv.Atoi(s[0:1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("serial setting %q: byte size: %w", s, err)
	}
	stopBits, err = strconv.Atoi(s[2:3])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("serial setting %q: stop bits: %w", s, err)
	}
	parity = Parity(s[1])

	probe := SerialEndpoint{Path: "-", BaudRate: 1, ByteSize: byteSize, Parity: parity, StopBits: stopBits}
	if err := probe.Validate(); err != nil {
		return 0, 0, 0, fmt.Errorf("serial setting %q: %w", s, err)
	}
	return byteSize, parity, stopBits, nil
}
