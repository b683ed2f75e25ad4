package gpio

import (
	"fmt"

	"github.com/larsjh/gobooth/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver is the real implementation for Raspberry Pi using go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiRealDriver creates a real GPIO driver for Raspberry Pi.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: make(map[int]rpio.Pin),
	}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	p := rpio.Pin(pin)
	r.pins[pin] = p

	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}

	return nil
}

func (r *RPiDriver) SetPull(pin int, pull Pull) error {
	debug.GPIO("SetPull", pin, pull)

	p, err := r.pin(pin, Input)
	if err != nil {
		return err
	}

	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	case PullOff:
		p.PullOff()
	default:
		return fmt.Errorf("unknown pull mode: %d", pull)
	}

	return nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)

	p, err := r.pin(pin, Output)
	if err != nil {
		return err
	}

	if level == High {
		p.High()
	} else {
		p.Low()
	}

	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)

	p, err := r.pin(pin, Input)
	if err != nil {
		return Low, err
	}

	state := p.Read()
	if state == rpio.High {
		return High, nil
	}
	return Low, nil
}

func (r *RPiDriver) DetectEdge(pin int, edge Edge) error {
	debug.GPIO("DetectEdge", pin, edge)

	p, err := r.pin(pin, Input)
	if err != nil {
		return err
	}

	switch edge {
	case FallingEdge:
		p.Detect(rpio.FallEdge)
	case RisingEdge:
		p.Detect(rpio.RiseEdge)
	case NoEdge:
		p.Detect(rpio.NoEdge)
	default:
		return fmt.Errorf("unknown edge mode: %d", edge)
	}

	return nil
}

func (r *RPiDriver) EdgeDetected(pin int) (bool, error) {
	p, err := r.pin(pin, Input)
	if err != nil {
		return false, err
	}
	return p.EdgeDetected(), nil
}

// pin returns the rpio.Pin, setting it up in the given mode on first use.
func (r *RPiDriver) pin(pin int, mode PinMode) (rpio.Pin, error) {
	p, ok := r.pins[pin]
	if !ok {
		if err := r.SetupPin(pin, mode); err != nil {
			return 0, err
		}
		p = r.pins[pin]
	}
	return p, nil
}

func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")

	// Reset all pins to input with edge detection off (safe state)
	for pin, p := range r.pins {
		debug.Verbose("Resetting pin %d to input", pin)
		p.Detect(rpio.NoEdge)
		p.Input()
	}

	return rpio.Close()
}
