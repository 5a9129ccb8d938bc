package trigger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/glint-data/flash.report/internal/vision"
)

// PortOptions describes the serial connection parameters used when opening a
// real serial port.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity
	return opts, nil
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.StopBits(opts.StopBits),
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}

	return mode, nil
}

// SerialSink fires detections as single lines over a serial port, for strobe
// controllers or data loggers listening on the other end. Line format:
//
//	FLASH,<frame_seq>,<x>,<y>,<confidence>\r\n
type SerialSink struct {
	mu   sync.Mutex
	port io.WriteCloser
}

// NewSerialSink opens the serial port at path and returns a sink writing to
// it.
func NewSerialSink(path string, opts PortOptions) (*SerialSink, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open trigger port %s: %w", path, err)
	}

	return &SerialSink{port: port}, nil
}

// NewSerialSinkFromPort wraps an already-open port. Used by tests and by
// callers that manage port lifecycle themselves.
func NewSerialSinkFromPort(port io.WriteCloser) *SerialSink {
	return &SerialSink{port: port}
}

// Fire writes one detection line to the port.
func (s *SerialSink) Fire(d vision.Detection) error {
	line := fmt.Sprintf("FLASH,%d,%.6f,%.6f,%.6f\r\n", d.FrameSeq, d.X, d.Y, d.Confidence)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.port, line); err != nil {
		return fmt.Errorf("failed to write trigger line: %w", err)
	}
	return nil
}

// Close closes the underlying port.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
