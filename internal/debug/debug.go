package debug

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (session start/end, montage saved)
	LevelLive    = 2 // Live info (captures, countdown, print job)
	LevelVerbose = 3 // Verbose (file paths, image sizes, layout details)
	LevelTrace   = 4 // Trace (GPIO, exec, very low level)
)

var (
	level  int
	logger *log.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (session start/end, results)
// 2 = live info (captures taken, printing)
// 3 = verbose (paths, sizes, layout math)
// 4 = trace (GPIO, external commands)
func Init(debugLevel int) {
	level = debugLevel
	if level > LevelOff {
		logger = log.New(os.Stdout, "[gobooth] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, e.g. to a multi-writer feeding the web UI.
func SetOutput(w io.Writer) {
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] "+format, args...)
	}
}

// Session prints the start of a capture session (level 1).
func Session(count int) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] Session started: %d photos", count)
	}
}

// Montage prints montage completion info (level 1).
func Montage(width, height int, path string) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] Montage %dx%d saved to %s", width, height, path)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO]   %s = %v", name, value)
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] "+format, args...)
	}
}

// Capture prints a photo capture (level 2).
func Capture(i, total int) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Capturing photo %d/%d", i, total)
	}
}

// Print prints the start of a print job (level 2).
func Print(destination string) {
	if level >= LevelLive && logger != nil {
		if destination == "" {
			destination = "default printer"
		}
		logger.Printf("[LIVE] Sending montage to %s", destination)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] "+format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] %s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Printf("  %s", name)
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] Step %d: %s", num, description)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace, GPIO, exec).
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[TRACE] "+format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[GPIO] %s pin=%d value=%v", operation, pin, value)
	}
}

// Exec prints an external command invocation (level 4).
func Exec(binary string, args []string) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[EXEC] %s %v", binary, args)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[ERROR] %v", err)
	}
}

// Fmt is a helper function that returns a formatted string
// only if debug is enabled (to avoid unnecessary allocations).
func Fmt(format string, args ...interface{}) string {
	if level > 0 {
		return fmt.Sprintf(format, args...)
	}
	return ""
}
