package device

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/telemetry"
)

// Mock simulates the fuel table firmware for testing and development.
// It emits the firmware header followed by one record per sample period.
type Mock struct {
	cfg config.MockConfig

	lines     chan []byte
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewMock creates a new mocked device instance.
func NewMock(cfg config.MockConfig) *Mock {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 10 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:    cfg,
		lines:  make(chan []byte, DefaultBufferSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect starts generating records.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	m.connected = true
	go m.generate()

	return nil
}

// Close stops the generator and waits for the lines channel to close.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	m.mu.Unlock()

	<-m.done

	return nil
}

// Lines returns the channel of generated records.
func (m *Mock) Lines() <-chan []byte {
	return m.lines
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generate() {
	defer close(m.done)
	defer close(m.lines)

	if !m.send(strings.Join(telemetry.Header, ",")) {
		return
	}

	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.send(mockRecord(i, m.cfg)) {
				return
			}
		}
	}
}

func (m *Mock) send(line string) bool {
	select {
	case m.lines <- []byte(line):
		return true
	case <-m.ctx.Done():
		return false
	}
}

// mockSegment is one step of the simulated tilt test.
type mockSegment struct {
	phase     string
	direction string
	from, to  float64 // pitch in degrees
}

// mockSegmentRows is the number of records per segment.
const mockSegmentRows = 150

var mockSchedule = []mockSegment{
	{telemetry.PhaseMovement, "Up", 0, 10},
	{telemetry.PhaseStationary1, "None", 10, 10},
	{telemetry.PhaseMovement, "Down", 10, -10},
	{telemetry.PhaseStationary2, "None", -10, -10},
	{telemetry.PhaseReturnToZero, "Up", -10, 0},
	{telemetry.PhaseComplete, "Zero", 0, 0},
}

var mockFaults = []string{
	telemetry.OpenCircuit,
	telemetry.ShortCircuit,
	telemetry.Disabled,
	telemetry.NoData,
}

// mockRecord renders record i the way the firmware prints it: elapsed
// milliseconds, sensor values in hundredths, pitch with two decimals.
func mockRecord(i int, cfg config.MockConfig) string {
	seg := len(mockSchedule) - 1
	frac := 1.0
	if s := i / mockSegmentRows; s < seg {
		seg = s
		frac = float64(i%mockSegmentRows) / mockSegmentRows
	}
	step := mockSchedule[seg]
	pitch := step.from + (step.to-step.from)*frac

	elapsed := time.Duration(i) * cfg.SampleRate

	// Fuel sloshes toward the low end with pitch and slowly drains
	fuel := 5000 - i/20 + int(math.Round(pitch*12))
	if fuel < 0 {
		fuel = 0
	}
	internal := 2500 + (i/40)%30
	external := 3000 + int(math.Round(50*math.Sin(float64(i)/200)))

	fuelText := strconv.Itoa(fuel)
	externalText := strconv.Itoa(external)
	if cfg.SensorFaultEvery > 0 && (i+1)%cfg.SensorFaultEvery == 0 {
		fault := mockFaults[((i+1)/cfg.SensorFaultEvery-1)%len(mockFaults)]
		externalText = fault
		if fault == telemetry.NoData {
			fuelText = telemetry.NoData
		}
	}

	return strings.Join([]string{
		strconv.FormatInt(elapsed.Milliseconds(), 10),
		fuelText,
		strconv.Itoa(internal),
		externalText,
		strconv.FormatFloat(pitch, 'f', 2, 64),
		step.phase,
		step.direction,
	}, ",")
}
