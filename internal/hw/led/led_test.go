package led

import (
	"testing"
	"time"

	"github.com/larsjh/gobooth/internal/hw/gpio"
)

func newTestIndicator(t *testing.T) (*Indicator, *gpio.MockDriver) {
	t.Helper()
	drv := gpio.NewMockDriver()
	ind, err := New(drv, 24)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { ind.Close() })
	return ind, drv
}

// waitForLevel polls the mock pin until it reaches want or the deadline passes.
func waitForLevel(t *testing.T, drv *gpio.MockDriver, pin int, want gpio.Level) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if drv.PinLevel(pin) == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pin %d never reached level %v", pin, want)
}

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateCapturing, "capturing"},
		{StatePrinting, "printing"},
		{StateError, "error"},
		{State(42), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestCapturingTurnsLEDOn(t *testing.T) {
	ind, drv := newTestIndicator(t)

	ind.SetState(StateCapturing)
	waitForLevel(t, drv, 24, gpio.High)
}

func TestIdleTurnsLEDOff(t *testing.T) {
	ind, drv := newTestIndicator(t)

	ind.SetState(StateCapturing)
	waitForLevel(t, drv, 24, gpio.High)

	ind.SetState(StateIdle)
	waitForLevel(t, drv, 24, gpio.Low)
}

func TestErrorBlinks(t *testing.T) {
	ind, drv := newTestIndicator(t)

	ind.SetState(StateError)
	// The error pattern toggles every 100ms; both levels must show up.
	waitForLevel(t, drv, 24, gpio.High)
	waitForLevel(t, drv, 24, gpio.Low)
	waitForLevel(t, drv, 24, gpio.High)
}

func TestCountdownBlocksForDuration(t *testing.T) {
	ind, _ := newTestIndicator(t)

	start := time.Now()
	ind.Countdown(200 * time.Millisecond)
	elapsed := time.Since(start)

	if elapsed < 150*time.Millisecond {
		t.Errorf("Countdown returned after %v, want >= ~200ms", elapsed)
	}
}

func TestCountdownZeroReturnsImmediately(t *testing.T) {
	ind, _ := newTestIndicator(t)

	start := time.Now()
	ind.Countdown(0)
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Countdown(0) took %v, want immediate return", elapsed)
	}
}

func TestCountdownRestoresState(t *testing.T) {
	ind, drv := newTestIndicator(t)

	ind.SetState(StateCapturing)
	waitForLevel(t, drv, 24, gpio.High)

	ind.Countdown(50 * time.Millisecond)

	// The solid capturing pattern comes back after the countdown blinking.
	waitForLevel(t, drv, 24, gpio.High)
}

func TestCloseTurnsLEDOff(t *testing.T) {
	drv := gpio.NewMockDriver()
	ind, err := New(drv, 24)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ind.SetState(StateCapturing)
	waitForLevel(t, drv, 24, gpio.High)

	if err := ind.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if drv.PinLevel(24) != gpio.Low {
		t.Error("LED still on after Close")
	}
}
