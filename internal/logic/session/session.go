package session

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/larsjh/gobooth/internal/debug"
	"github.com/larsjh/gobooth/internal/hw/camera"
	"github.com/larsjh/gobooth/internal/hw/led"
	"github.com/larsjh/gobooth/internal/hw/printer"
	"github.com/larsjh/gobooth/internal/logic/montage"
)

// Trigger is the physical or simulated start signal for a session.
type Trigger interface {
	// WaitForPress blocks until the trigger fires or ctx is done.
	WaitForPress(ctx context.Context) error
	// Drain discards trigger events received while a session was running.
	Drain()
}

// StatusIndicator shows the booth state to the person in front of it.
type StatusIndicator interface {
	SetState(led.State)
	Countdown(d time.Duration)
}

// Params holds the per-session settings.
type Params struct {
	Count        int           // photos per session
	Countdown    time.Duration // indicator countdown before each capture
	OutDir       string        // where captures and montages are written
	KeepCaptures bool          // persist individual captures alongside the montage
}

// Orchestrator sequences the end-to-end pipeline: wait for the trigger,
// capture N photos, compose the montage, save it, print it. Everything runs
// strictly in sequence on the calling goroutine; the captured images are
// owned by the running session and never shared.
type Orchestrator struct {
	trigger  Trigger
	camera   camera.Camera
	composer *montage.Composer
	printer  printer.Transport
	status   StatusIndicator
	params   Params

	mu          sync.Mutex
	lastMontage string
}

// NewOrchestrator wires the pipeline. All collaborators are required.
func NewOrchestrator(
	trigger Trigger,
	cam camera.Camera,
	composer *montage.Composer,
	transport printer.Transport,
	status StatusIndicator,
	params Params,
) *Orchestrator {
	return &Orchestrator{
		trigger:  trigger,
		camera:   cam,
		composer: composer,
		printer:  transport,
		status:   status,
		params:   params,
	}
}

// Run serves sessions until ctx is done. A failed session is logged and
// shown on the indicator; the loop keeps waiting for the next trigger.
// Trigger events that arrive while a session is running are discarded, not
// queued.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.status.SetState(led.StateIdle)

	for {
		if err := o.trigger.WaitForPress(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for trigger: %w", err)
		}

		if err := o.RunSession(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			debug.Error(err)
			// The error pattern stays on the indicator until the next press.
		}

		o.trigger.Drain()
	}
}

// RunSession runs one trigger-to-print cycle. On success the indicator ends
// idle; on any failure it ends in the error state and the printer is never
// invoked for an incomplete set of captures.
func (o *Orchestrator) RunSession(ctx context.Context) error {
	debug.Session(o.params.Count)
	o.status.SetState(led.StateCapturing)

	stamp := time.Now().Format("06-01-02_15-04-05")

	captures, err := o.captureAll(ctx)
	if err != nil {
		o.status.SetState(led.StateError)
		return err
	}

	images := make([]image.Image, 0, len(captures))
	for i, data := range captures {
		img, err := montage.Decode(data)
		if err != nil {
			o.status.SetState(led.StateError)
			return fmt.Errorf("capture %d: %w", i+1, err)
		}
		images = append(images, img)
	}

	if o.params.KeepCaptures {
		if err := o.saveCaptures(stamp, captures); err != nil {
			// Losing a capture copy is not worth aborting the print.
			debug.Error(err)
		}
	}

	composite, err := o.composer.Compose(images)
	if err != nil {
		o.status.SetState(led.StateError)
		return err
	}

	encoded, err := montage.EncodeJPEG(composite)
	if err != nil {
		o.status.SetState(led.StateError)
		return err
	}

	montagePath := filepath.Join(o.params.OutDir, stamp+"_montage.jpg")
	if err := o.save(montagePath, encoded); err != nil {
		o.status.SetState(led.StateError)
		return err
	}
	debug.Montage(composite.Bounds().Dx(), composite.Bounds().Dy(), montagePath)
	o.setLastMontage(montagePath)

	o.status.SetState(led.StatePrinting)
	if err := o.printer.Send(ctx, encoded); err != nil {
		o.status.SetState(led.StateError)
		return err
	}

	o.status.SetState(led.StateIdle)
	debug.Info("Session complete")
	return nil
}

// captureAll takes the configured number of photos, counting down on the
// indicator before each one. The first failure aborts the session.
func (o *Orchestrator) captureAll(ctx context.Context) ([][]byte, error) {
	captures := make([][]byte, 0, o.params.Count)
	for i := 1; i <= o.params.Count; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		o.status.Countdown(o.params.Countdown)

		debug.Capture(i, o.params.Count)
		data, err := o.camera.Capture(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture %d/%d: %w", i, o.params.Count, err)
		}
		captures = append(captures, data)
	}
	return captures, nil
}

// saveCaptures writes the individual photos next to the montage.
func (o *Orchestrator) saveCaptures(stamp string, captures [][]byte) error {
	for i, data := range captures {
		path := filepath.Join(o.params.OutDir, fmt.Sprintf("%s_capture-%d.jpg", stamp, i+1))
		if err := o.save(path, data); err != nil {
			return err
		}
		debug.Verbose("Saved capture in %s", path)
	}
	return nil
}

func (o *Orchestrator) save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (o *Orchestrator) setLastMontage(path string) {
	o.mu.Lock()
	o.lastMontage = path
	o.mu.Unlock()
}

// LastMontagePath returns the most recently saved montage, or "" if none
// has been produced since startup.
func (o *Orchestrator) LastMontagePath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastMontage
}
