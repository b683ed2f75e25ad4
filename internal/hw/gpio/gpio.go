package gpio

import (
	"sync"

	"github.com/larsjh/gobooth/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Pull selects the internal resistor for an input pin.
type Pull int

const (
	PullOff Pull = iota
	PullUp
	PullDown
)

// Edge selects which transitions the hardware edge latch watches.
type Edge int

const (
	NoEdge Edge = iota
	FallingEdge
	RisingEdge
)

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	SetPull(pin int, pull Pull) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	// DetectEdge arms (or with NoEdge disarms) the hardware edge latch on pin.
	DetectEdge(pin int, edge Edge) error
	// EdgeDetected reports and clears whether an armed edge fired since the last call.
	EdgeDetected(pin int) (bool, error)
	Close() error
}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	}
	return NewRPiRealDriver()
}

// MockDriver is a test implementation that logs actions and keeps pin state
// in memory. Edges can be injected with LatchEdge to simulate button presses.
type MockDriver struct {
	mu     sync.Mutex
	levels map[int]Level
	edges  map[int]bool
	armed  map[int]Edge
}

// NewMockDriver creates a mock driver with all pins low and no edges armed.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		levels: make(map[int]Level),
		edges:  make(map[int]bool),
		armed:  make(map[int]Edge),
	}
}

// LatchEdge simulates a hardware edge event on pin (e.g. a button press).
// The edge is only recorded if the pin has an edge armed.
func (m *MockDriver) LatchEdge(pin int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.armed[pin] != NoEdge {
		m.edges[pin] = true
	}
}

// PinLevel returns the last level written to pin (Low if never written).
func (m *MockDriver) PinLevel(pin int) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	return nil
}

func (m *MockDriver) SetPull(pin int, pull Pull) error {
	debug.GPIO("SetPull", pin, pull)
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.mu.Lock()
	m.levels[pin] = level
	m.mu.Unlock()
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

func (m *MockDriver) DetectEdge(pin int, edge Edge) error {
	debug.GPIO("DetectEdge", pin, edge)
	m.mu.Lock()
	m.armed[pin] = edge
	if edge == NoEdge {
		m.edges[pin] = false
	}
	m.mu.Unlock()
	return nil
}

func (m *MockDriver) EdgeDetected(pin int) (bool, error) {
	m.mu.Lock()
	fired := m.edges[pin]
	m.edges[pin] = false
	m.mu.Unlock()
	return fired, nil
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}
