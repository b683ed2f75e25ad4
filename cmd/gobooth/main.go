package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/larsjh/gobooth/internal/config"
	"github.com/larsjh/gobooth/internal/debug"
	"github.com/larsjh/gobooth/internal/hw/button"
	"github.com/larsjh/gobooth/internal/hw/camera"
	"github.com/larsjh/gobooth/internal/hw/gpio"
	"github.com/larsjh/gobooth/internal/hw/led"
	"github.com/larsjh/gobooth/internal/hw/printer"
	"github.com/larsjh/gobooth/internal/logic/montage"
	"github.com/larsjh/gobooth/internal/logic/session"
	"github.com/larsjh/gobooth/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	count := flag.Int("count", 0, "override photos per session (1, 4 or 9)")
	outDir := flag.String("outdir", "", "override image output directory")
	noPrint := flag.Bool("no-print", false, "compose and save montages without printing")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Apply CLI overrides (only non-zero values; zero means "use config default")
	if err := applyOverrides(cfg, *count, *outDir, *noPrint); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Photos per session", cfg.Session.Count)

	// Initialize GPIO driver
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	// Initialize trigger button and status LED
	debug.Step(2, "Initializing button and status LED")
	trigger, err := button.New(gpioDriver, cfg.Button.Pin, cfg.PollInterval())
	if err != nil {
		log.Fatalf("init button failed: %v", err)
	}
	indicator, err := led.New(gpioDriver, cfg.Led.Pin)
	if err != nil {
		log.Fatalf("init LED failed: %v", err)
	}
	defer func() {
		if err := indicator.Close(); err != nil {
			log.Printf("closing LED failed: %v", err)
		}
	}()

	// Initialize camera
	debug.Step(3, "Initializing camera")
	cam, err := newCameraFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("init camera failed: %v", err)
	}
	debug.Value("Camera type", cfg.Camera.Type)

	// Initialize print transport
	debug.Step(4, "Initializing print transport")
	transport := newTransportFromConfig(cfg)
	debug.Value("Printing enabled", cfg.Printer.Enabled)

	// Build the montage composer
	debug.Step(5, "Building montage composer")
	composer, err := newComposerFromConfig(cfg)
	if err != nil {
		log.Fatalf("init montage composer failed: %v", err)
	}
	debug.PrintStruct("Montage config", cfg.Montage)

	status := &boothStatus{led: indicator, state: led.StateIdle}

	orch := session.NewOrchestrator(trigger, cam, composer, transport, status, session.Params{
		Count:        cfg.Session.Count,
		Countdown:    cfg.Countdown(),
		OutDir:       cfg.Session.OutDir,
		KeepCaptures: cfg.Session.KeepCaptures,
	})

	if port := webPort.port(); port > 0 {
		broadcaster := web.NewEventBroadcaster()
		status.broadcaster = broadcaster
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		handlers := web.NewHandlers(
			broadcaster,
			web.BoothInfo{
				Count:   cfg.Session.Count,
				OutDir:  cfg.Session.OutDir,
				Printer: cfg.Printer.PrinterName,
			},
			trigger.Press,
			status.State,
			orch.LastMontagePath,
			nil,
		)
		srv := web.NewServer(fmt.Sprintf(":%d", port), handlers)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("web server: %v", err)
				cancel()
			}
		}()
	}

	debug.Section("Waiting for trigger")
	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("run failed: %v", err)
	}
}

// boothStatus fans indicator transitions out to the LED and, when the web
// server runs, to SSE clients. It also remembers the current state for the
// web trigger's busy check.
type boothStatus struct {
	led         *led.Indicator
	broadcaster *web.EventBroadcaster

	mu    sync.Mutex
	state led.State
}

func (s *boothStatus) SetState(st led.State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.led.SetState(st)
	if s.broadcaster != nil {
		s.broadcaster.State(st.String())
	}
}

func (s *boothStatus) Countdown(d time.Duration) {
	s.led.Countdown(d)
}

// State returns the current booth state name.
func (s *boothStatus) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

// applyOverrides mutates cfg with CLI overrides and re-checks invariants the
// overrides can break.
func applyOverrides(cfg *config.Config, count int, outDir string, noPrint bool) error {
	if count != 0 {
		if count != 1 && count != 4 && count != 9 {
			return fmt.Errorf("count must be 1, 4 or 9, got %d", count)
		}
		cfg.Session.Count = count
	}
	grid := cfg.GridSize()
	if cfg.Montage.WidthPx%grid != 0 || cfg.Montage.HeightPx%grid != 0 {
		return fmt.Errorf("montage %dx%d is not divisible by the %dx%d grid",
			cfg.Montage.WidthPx, cfg.Montage.HeightPx, grid, grid)
	}
	if outDir != "" {
		cfg.Session.OutDir = outDir
	}
	if noPrint {
		cfg.Printer.Enabled = false
	}
	return nil
}

// newCameraFromConfig selects a camera implementation based on configuration.
// The gphoto2 camera is probed once here; a booth without a camera cannot run.
func newCameraFromConfig(ctx context.Context, cfg *config.Config) (camera.Camera, error) {
	switch cfg.Camera.Type {
	case "gphoto2":
		cam := camera.NewGPhoto2(
			camera.WithBinary(cfg.Camera.Binary),
			camera.WithTimeout(cfg.CaptureTimeout()),
		)
		if err := cam.Probe(ctx); err != nil {
			return nil, err
		}
		return cam, nil
	case "mock":
		return camera.NewMock(800, 600), nil
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}

// newTransportFromConfig returns the CUPS transport, or Discard when
// printing is disabled.
func newTransportFromConfig(cfg *config.Config) printer.Transport {
	if !cfg.Printer.Enabled {
		return printer.Discard{}
	}
	return printer.NewCUPS(
		printer.WithBinary(cfg.Printer.Binary),
		printer.WithPrinter(cfg.Printer.PrinterName),
		printer.WithCopies(cfg.Printer.Copies),
	)
}

// newComposerFromConfig builds the composer, loading the optional background
// image.
func newComposerFromConfig(cfg *config.Config) (*montage.Composer, error) {
	layout, err := montage.LayoutFor(cfg.Session.Count)
	if err != nil {
		return nil, err
	}

	var background image.Image
	if cfg.Montage.Background != "" {
		background, err = loadImage(cfg.Montage.Background)
		if err != nil {
			return nil, fmt.Errorf("load background: %w", err)
		}
	}

	return montage.NewComposer(montage.Params{
		Layout:        layout,
		Width:         cfg.Montage.WidthPx,
		Height:        cfg.Montage.HeightPx,
		BorderPercent: cfg.Montage.BorderPercent,
		Background:    background,
	})
}

func loadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return montage.Decode(data)
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
