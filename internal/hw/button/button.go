package button

import (
	"context"
	"time"

	"github.com/larsjh/gobooth/internal/debug"
	"github.com/larsjh/gobooth/internal/hw/gpio"
)

// Button is the physical trigger: a push button wired between a GPIO pin
// and ground. The pin uses the internal pull-up, so a press reads as a
// falling edge.
type Button struct {
	gpio gpio.Driver
	pin  int
	poll time.Duration
	soft chan struct{}
}

// New configures pin as a pulled-up input with the falling-edge latch armed
// and returns the button. poll is the interval at which the latch is checked;
// the hardware does the actual watching, so it can be coarse.
func New(g gpio.Driver, pin int, poll time.Duration) (*Button, error) {
	if err := g.SetupPin(pin, gpio.Input); err != nil {
		return nil, err
	}
	if err := g.SetPull(pin, gpio.PullUp); err != nil {
		return nil, err
	}
	if err := g.DetectEdge(pin, gpio.FallingEdge); err != nil {
		return nil, err
	}

	if poll <= 0 {
		poll = 10 * time.Millisecond
	}

	return &Button{
		gpio: g,
		pin:  pin,
		poll: poll,
		soft: make(chan struct{}, 1),
	}, nil
}

// Press injects a software trigger, as if the physical button had been
// pushed. Used by the web UI. Presses while one is already pending are
// dropped.
func (b *Button) Press() {
	select {
	case b.soft <- struct{}{}:
	default:
	}
}

// WaitForPress blocks until the button is pressed or ctx is done.
func (b *Button) WaitForPress(ctx context.Context) error {
	debug.Verbose("Button: waiting for press on pin %d", b.pin)

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.soft:
			debug.Live("Button pressed (software)")
			return nil
		case <-ticker.C:
			fired, err := b.gpio.EdgeDetected(b.pin)
			if err != nil {
				return err
			}
			if fired {
				debug.Live("Button pressed (pin %d)", b.pin)
				return nil
			}
		}
	}
}

// Drain discards any edge latched since the last check. Called after a
// session so presses made while the booth was busy are ignored rather than
// queued.
func (b *Button) Drain() {
	if fired, err := b.gpio.EdgeDetected(b.pin); err == nil && fired {
		debug.Verbose("Button: discarding press received while busy")
	}
	select {
	case <-b.soft:
		debug.Verbose("Button: discarding software press received while busy")
	default:
	}
}
