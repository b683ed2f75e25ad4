package led

import (
	"time"

	"github.com/larsjh/gobooth/internal/debug"
	"github.com/larsjh/gobooth/internal/hw/gpio"
)

// State is the booth state shown on the status LED.
type State int

const (
	StateIdle      State = iota // LED off
	StateCapturing              // LED solid on
	StatePrinting               // slow blink
	StateError                  // fast blink
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StatePrinting:
		return "printing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// blink periods per state. 0 = steady level, no ticker.
const (
	printingPeriod = 500 * time.Millisecond
	errorPeriod    = 100 * time.Millisecond
)

// countdown blink bounds, ported from the original booth: the blink speeds
// up as the capture gets closer.
const (
	countdownMaxPeriod = 1 * time.Second
	countdownMinPeriod = 50 * time.Millisecond
)

type command struct {
	state     State
	countdown time.Duration
	done      chan struct{} // closed when a countdown finishes
}

// Indicator drives a single status LED. All pin writes happen on one
// goroutine, so states and countdowns never interleave on the wire.
type Indicator struct {
	gpio gpio.Driver
	pin  int

	cmds chan command
	quit chan struct{}
	dead chan struct{}
}

// New configures pin as an output (initially low) and starts the pattern
// goroutine.
func New(g gpio.Driver, pin int) (*Indicator, error) {
	if err := g.SetupPin(pin, gpio.Output); err != nil {
		return nil, err
	}
	if err := g.WritePin(pin, gpio.Low); err != nil {
		return nil, err
	}

	ind := &Indicator{
		gpio: g,
		pin:  pin,
		cmds: make(chan command, 8),
		quit: make(chan struct{}),
		dead: make(chan struct{}),
	}
	go ind.run()
	return ind, nil
}

// SetState switches the LED pattern. Fire-and-forget: it never blocks the
// caller and there is no acknowledgement.
func (i *Indicator) SetState(s State) {
	debug.Live("Status: %s", s)
	select {
	case i.cmds <- command{state: s}:
	case <-i.quit:
	}
}

// Countdown blinks with increasing frequency for d, then returns. Blocks the
// caller for the whole duration; the orchestrator uses it as the pre-capture
// wait.
func (i *Indicator) Countdown(d time.Duration) {
	if d <= 0 {
		return
	}
	done := make(chan struct{})
	select {
	case i.cmds <- command{countdown: d, done: done}:
	case <-i.quit:
		return
	}
	select {
	case <-done:
	case <-i.dead:
	}
}

// Close stops the pattern goroutine and turns the LED off.
func (i *Indicator) Close() error {
	close(i.quit)
	<-i.dead
	return i.gpio.WritePin(i.pin, gpio.Low)
}

func (i *Indicator) run() {
	defer close(i.dead)

	state := StateIdle
	lit := false

	// The ticker only runs for blinking states; a stopped ticker's channel
	// never fires.
	ticker := time.NewTicker(time.Hour)
	ticker.Stop()

	apply := func(s State) {
		state = s
		ticker.Stop()
		switch s {
		case StateCapturing:
			lit = true
		case StatePrinting:
			lit = true
			ticker.Reset(printingPeriod)
		case StateError:
			lit = true
			ticker.Reset(errorPeriod)
		default: // StateIdle
			lit = false
		}
		i.write(lit)
	}

	for {
		select {
		case <-i.quit:
			return
		case <-ticker.C:
			lit = !lit
			i.write(lit)
		case cmd := <-i.cmds:
			if cmd.done != nil {
				i.countdown(cmd.countdown)
				close(cmd.done)
				apply(state) // restore the pattern the countdown interrupted
				continue
			}
			apply(cmd.state)
		}
	}
}

// countdown blinks for the given total duration, speeding up toward the end.
func (i *Indicator) countdown(total time.Duration) {
	debug.Verbose("LED countdown: %v", total)
	deadline := time.Now().Add(total)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return
		}
		period := left / 4
		if period < countdownMinPeriod {
			period = countdownMinPeriod
		} else if period > countdownMaxPeriod {
			period = countdownMaxPeriod
		}
		if period > left {
			period = left
		}
		i.blink(period)
	}
}

// blink turns the LED on then off, each for half the period.
func (i *Indicator) blink(period time.Duration) {
	i.write(true)
	i.sleep(period / 2)
	i.write(false)
	i.sleep(period / 2)
}

func (i *Indicator) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-i.quit:
	}
}

func (i *Indicator) write(on bool) {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := i.gpio.WritePin(i.pin, level); err != nil {
		debug.Error(err)
	}
}
