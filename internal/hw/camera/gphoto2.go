package camera

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/larsjh/gobooth/internal/debug"
)

var commandContext = exec.CommandContext

// Option configures the gphoto2 client.
type Option func(*GPhoto2)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(g *GPhoto2) {
		if binary != "" {
			g.binary = binary
		}
	}
}

// WithTimeout overrides the per-capture timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *GPhoto2) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// GPhoto2 wraps the gphoto2 command-line tool to drive a tethered camera
// over USB. Each Capture runs one capture-and-download into a temp file and
// returns its bytes.
type GPhoto2 struct {
	binary  string
	timeout time.Duration
}

// NewGPhoto2 constructs a gphoto2 client using defaults.
func NewGPhoto2(opts ...Option) *GPhoto2 {
	g := &GPhoto2{binary: "gphoto2", timeout: 20 * time.Second}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Probe checks that a compatible camera is connected. Called once at
// startup; a failure here is considered unrecoverable.
func (g *GPhoto2) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	args := []string{"--auto-detect"}
	debug.Exec(g.binary, args)
	cmd := commandContext(ctx, g.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &DeviceError{Op: "probe", Err: fmt.Errorf("%w: %s", err, firstLine(out))}
	}

	// --auto-detect exits 0 even with no camera; the model list is the
	// actual answer.
	if !detectedCamera(string(out)) {
		return &DeviceError{Op: "probe", Err: fmt.Errorf("no camera detected, please connect a compatible camera")}
	}

	debug.Verbose("Camera detected: %s", firstModelLine(string(out)))
	return nil
}

// Capture triggers a shot, downloads it, and returns the image bytes.
func (g *GPhoto2) Capture(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tmp, err := os.CreateTemp("", "gobooth-capture-*.jpg")
	if err != nil {
		return nil, &DeviceError{Op: "capture", Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{
		"--capture-image-and-download",
		"--filename", tmpPath,
		"--force-overwrite",
	}
	debug.Exec(g.binary, args)
	cmd := commandContext(ctx, g.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &DeviceError{Op: "capture", Err: fmt.Errorf("timed out after %v", g.timeout)}
		}
		return nil, &DeviceError{Op: "capture", Err: fmt.Errorf("%w: %s", err, firstLine(out))}
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, &DeviceError{Op: "capture", Err: fmt.Errorf("read downloaded image: %w", err)}
	}
	if len(data) == 0 {
		return nil, &DeviceError{Op: "capture", Err: fmt.Errorf("camera produced an empty file")}
	}

	debug.Verbose("Camera: downloaded %d bytes to %s", len(data), filepath.Base(tmpPath))
	return data, nil
}

// detectedCamera reports whether --auto-detect output lists at least one model.
// The output is a two-line header followed by one line per camera.
func detectedCamera(out string) bool {
	return firstModelLine(out) != ""
}

func firstModelLine(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i < 2 { // "Model  Port" header and separator
			continue
		}
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// firstLine extracts the first non-empty line of command output for error
// messages.
func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return "no output"
}

var _ Camera = (*GPhoto2)(nil)
