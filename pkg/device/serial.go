package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/fueltable/pkg/config"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is the baud rate of the fuel table firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the lines channel buffer.
	DefaultBufferSize = 256

	readChunk = 1024
)

// Port describes an available serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads newline-delimited records from the MCU over a serial port.
type Serial struct {
	cfg config.SerialConfig
	log zerolog.Logger

	conn      serial.Port
	lines     chan []byte
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewSerial creates a serial device. Zero baud rate and buffer size take defaults.
func NewSerial(cfg config.SerialConfig, bufSize int, log zerolog.Logger) *Serial {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		cfg:    cfg,
		log:    log.With().Str("port", cfg.Port).Logger(),
		lines:  make(chan []byte, bufSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Name
		if d.IsUSB {
			desc = fmt.Sprintf("%s (USB %s:%s %s)", d.Name, d.VID, d.PID, d.Product)
		}
		result = append(result, Port{Name: d.Name, Description: desc})
	}

	return result, nil
}

// Connect opens the serial port, waits for the link to settle and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	port, err := serial.Open(d.cfg.Port, &serial.Mode{BaudRate: d.cfg.BaudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.cfg.Port, err)
	}

	if d.cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(d.cfg.ReadTimeout); err != nil {
			port.Close()
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	// Opening the port resets most Arduino boards
	if d.cfg.SettleDelay > 0 {
		select {
		case <-time.After(d.cfg.SettleDelay):
		case <-d.ctx.Done():
			port.Close()
			return d.ctx.Err()
		}
	}

	d.conn = port
	d.connected = true
	d.log.Info().Int("baud", d.cfg.BaudRate).Msg("Serial port open")

	go d.readLines(port)

	return nil
}

// Close stops reading, closes the port and waits for the lines channel to close.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	var err error
	if d.conn != nil {
		if err = d.conn.Close(); err != nil {
			d.log.Warn().Err(err).Msg("Error closing serial port")
		}
		d.conn = nil
	}
	d.connected = false
	d.mu.Unlock()

	<-d.done

	return err
}

// Lines returns the channel of received records.
func (d *Serial) Lines() <-chan []byte {
	return d.lines
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads from the port until it is closed or fails.
func (d *Serial) readLines(port serial.Port) {
	defer close(d.done)
	defer close(d.lines)

	splitter := &lineSplitter{}
	buf := make([]byte, readChunk)

	for {
		n, err := port.Read(buf)
		if d.ctx.Err() != nil {
			return
		}
		if err != nil {
			var portErr *serial.PortError
			if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
				return
			}
			d.log.Error().Err(err).Msg("Error reading from serial port")
			if rest := splitter.Rest(); rest != nil {
				d.emit(rest)
			}
			return
		}
		if n == 0 {
			// Read timeout, nothing arrived
			continue
		}

		for _, line := range splitter.Feed(buf[:n]) {
			if !d.emit(line) {
				return
			}
		}
	}
}

func (d *Serial) emit(line []byte) bool {
	select {
	case d.lines <- line:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// lineSplitter accumulates bytes and cuts them into newline-terminated records.
type lineSplitter struct {
	pending []byte
}

// Feed appends data and returns every completed line without its '\n'.
// Returned slices are owned by the caller.
func (s *lineSplitter) Feed(data []byte) [][]byte {
	s.pending = append(s.pending, data...)

	var lines [][]byte
	for {
		idx := bytes.IndexByte(s.pending, '\n')
		if idx < 0 {
			break
		}
		line := make([]byte, idx)
		copy(line, s.pending[:idx])
		lines = append(lines, line)
		s.pending = s.pending[idx+1:]
	}

	if len(s.pending) == 0 {
		s.pending = nil
	}

	return lines
}

// Rest returns the unterminated tail, if any, and resets the splitter.
func (s *lineSplitter) Rest() []byte {
	if len(s.pending) == 0 {
		return nil
	}
	rest := s.pending
	s.pending = nil
	return rest
}
