package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"
)

// fakeCommand reroutes the gphoto2 invocation to the test binary's helper
// process and captures the arguments.
func fakeCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"GPHOTO2_HELPER_MODE="+mode,
			"GPHOTO2_HELPER_FILE="+filenameArg(args),
		)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
}

// filenameArg extracts the --filename value from gphoto2 arguments.
func filenameArg(args []string) string {
	for i, arg := range args {
		if arg == "--filename" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("GPHOTO2_HELPER_MODE") {
	case "capture":
		if err := os.WriteFile(os.Getenv("GPHOTO2_HELPER_FILE"), []byte("jpeg-bytes"), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("New file is in location /capt0000.jpg")
		os.Exit(0)
	case "capture_no_file":
		fmt.Println("New file is in location /capt0000.jpg")
		os.Exit(0)
	case "detect":
		fmt.Println("Model                          Port")
		fmt.Println("----------------------------------------------------------")
		fmt.Println("Nikon DSC D90                  usb:001,004")
		os.Exit(0)
	case "detect_empty":
		fmt.Println("Model                          Port")
		fmt.Println("----------------------------------------------------------")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "*** Error: No camera found. ***")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func TestNewGPhoto2Options(t *testing.T) {
	g := NewGPhoto2(WithBinary("/opt/gphoto2"), WithTimeout(5*time.Second))
	if g.binary != "/opt/gphoto2" {
		t.Errorf("binary = %q, want /opt/gphoto2", g.binary)
	}
	if g.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", g.timeout)
	}
}

func TestCapture_Success(t *testing.T) {
	var args []string
	fakeCommand(t, "capture", &args)

	data, err := NewGPhoto2().Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("data = %q, want downloaded bytes", data)
	}

	if len(args) == 0 || args[0] != "--capture-image-and-download" {
		t.Errorf("args = %v, want capture-image-and-download first", args)
	}
	if filenameArg(args) == "" {
		t.Errorf("args = %v, missing --filename", args)
	}
}

func TestCapture_CommandFails(t *testing.T) {
	fakeCommand(t, "failure", nil)

	_, err := NewGPhoto2().Capture(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %v", err)
	}
	if devErr.Op != "capture" {
		t.Errorf("Op = %q, want capture", devErr.Op)
	}
}

func TestCapture_EmptyDownload(t *testing.T) {
	fakeCommand(t, "capture_no_file", nil)

	_, err := NewGPhoto2().Capture(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError for empty download, got %v", err)
	}
}

func TestProbe_CameraDetected(t *testing.T) {
	fakeCommand(t, "detect", nil)

	if err := NewGPhoto2().Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
}

func TestProbe_NoCamera(t *testing.T) {
	fakeCommand(t, "detect_empty", nil)

	err := NewGPhoto2().Probe(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %v", err)
	}
	if devErr.Op != "probe" {
		t.Errorf("Op = %q, want probe", devErr.Op)
	}
}

func TestFirstModelLine(t *testing.T) {
	out := "Model   Port\n----\nNikon DSC D90   usb:001,004\n"
	if got := firstModelLine(out); got != "Nikon DSC D90   usb:001,004" {
		t.Errorf("firstModelLine = %q", got)
	}
	if got := firstModelLine("Model   Port\n----\n\n"); got != "" {
		t.Errorf("firstModelLine on empty list = %q, want empty", got)
	}
}

func TestDeviceErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &DeviceError{Op: "capture", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("DeviceError does not unwrap to the inner error")
	}
}
