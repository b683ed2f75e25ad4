package printer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/larsjh/gobooth/internal/debug"
)

var commandContext = exec.CommandContext

// Transport delivers a finished image to a physical printer.
type Transport interface {
	// Send submits the image bytes as one print job.
	Send(ctx context.Context, image []byte) error
}

// TransportError reports a printer that is unreachable or rejected the job.
type TransportError struct {
	Printer string // destination name, empty = system default
	Err     error
}

func (e *TransportError) Error() string {
	dest := e.Printer
	if dest == "" {
		dest = "default printer"
	}
	return fmt.Sprintf("print to %s: %v", dest, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Option configures the CUPS client.
type Option func(*CUPS)

// WithBinary overrides the default lp binary name.
func WithBinary(binary string) Option {
	return func(c *CUPS) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithPrinter selects a named destination (lp -d). Empty uses the system
// default printer.
func WithPrinter(name string) Option {
	return func(c *CUPS) {
		c.printer = name
	}
}

// WithCopies sets the number of copies per job.
func WithCopies(n int) Option {
	return func(c *CUPS) {
		if n > 0 {
			c.copies = n
		}
	}
}

// CUPS submits print jobs by piping image bytes to lp on stdin.
type CUPS struct {
	binary  string
	printer string
	copies  int
	timeout time.Duration
}

// NewCUPS constructs a CUPS transport using defaults.
func NewCUPS(opts ...Option) *CUPS {
	c := &CUPS{binary: "lp", copies: 1, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send pipes the image to lp. The job is queued by CUPS; a zero exit means
// the spooler accepted it.
func (c *CUPS) Send(ctx context.Context, image []byte) error {
	if len(image) == 0 {
		return &TransportError{Printer: c.printer, Err: fmt.Errorf("empty image")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var args []string
	if c.printer != "" {
		args = append(args, "-d", c.printer)
	}
	if c.copies > 1 {
		args = append(args, "-n", strconv.Itoa(c.copies))
	}

	debug.Exec(c.binary, args)
	cmd := commandContext(ctx, c.binary, args...)
	cmd.Stdin = bytes.NewReader(image)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &TransportError{Printer: c.printer, Err: fmt.Errorf("%w: %s", err, firstLine(out))}
	}

	debug.Verbose("Printer: job accepted (%s)", firstLine(out))
	return nil
}

// Discard is a Transport that drops jobs. Backs the disabled-printer
// configuration and the -no-print flag.
type Discard struct{}

func (Discard) Send(ctx context.Context, image []byte) error {
	debug.Live("Printing disabled, discarding %d byte job", len(image))
	return nil
}

func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return "no output"
}

var (
	_ Transport = (*CUPS)(nil)
	_ Transport = Discard{}
)
