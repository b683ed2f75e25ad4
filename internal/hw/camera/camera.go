package camera

import (
	"context"
	"fmt"
)

// Camera is the high-level interface used by the rest of the application.
// It represents an abstract tethered camera, regardless of how it's
// controlled (gphoto2, USB, network protocol, etc.).
type Camera interface {
	// Capture triggers a single shot and returns the downloaded image bytes.
	Capture(ctx context.Context) ([]byte, error)
}

// DeviceError reports a camera that is unreachable, timed out, or failed to
// produce an image.
type DeviceError struct {
	Op  string // what was attempted, e.g. "capture", "probe"
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
