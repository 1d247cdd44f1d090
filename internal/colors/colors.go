// Package colors provides color console output for the ntfytoast CLI.
package colors

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Color constants
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const checkmark = "✓"

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	debugEnabled atomic.Bool
	quietEnabled atomic.Bool
	reentrant    atomic.Bool
	logger       Logger
	loggerMu     sync.RWMutex
)

func init() {
	if val := os.Getenv("NTFYTOAST_DEBUG"); val == "true" || val == "1" {
		debugEnabled.Store(true)
	}
}

// SetDebug enables or disables debug output.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether debug output is on.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetQuiet suppresses Info and Success output on stdout. Warnings and
// errors are always printed.
func SetQuiet(enabled bool) {
	quietEnabled.Store(enabled)
}

// SetLogger sets the structured logger to mirror console output.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func currentLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// line is one console message: where it goes and how it is decorated.
type line struct {
	stderr bool
	prefix string
	mirror func(Logger, string)
	what   string
}

func (l line) print(msg string) {
	if lg := currentLogger(); lg != nil && l.mirror != nil {
		l.mirror(lg, msg)
	}
	if !l.stderr && quietEnabled.Load() {
		return
	}
	var w io.Writer = os.Stdout
	if l.stderr {
		w = os.Stderr
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", l.prefix, msg+Reset); err != nil {
		// A failing console must not recurse into another failing write.
		if !reentrant.CompareAndSwap(false, true) {
			fmt.Fprintf(os.Stderr, "failed to print %s message: %v\n", l.what, err)
			return
		}
		defer reentrant.Store(false)
		Warning("failed to print " + l.what + " message: " + err.Error())
	}
}

// Error outputs an error message to stderr.
func Error(msgs ...string) {
	line{
		stderr: true,
		prefix: Red + "Error:" + Reset + " ",
		mirror: func(l Logger, m string) { l.Error(m) },
		what:   "error",
	}.print(strings.Join(msgs, " "))
}

// Success outputs a success message to stdout.
func Success(msgs ...string) {
	line{
		prefix: Green + checkmark + Reset + " ",
		mirror: func(l Logger, m string) { l.Info(m, "type", "success") },
		what:   "success",
	}.print(strings.Join(msgs, " "))
}

// Warning outputs a warning message to stderr.
func Warning(msgs ...string) {
	line{
		stderr: true,
		prefix: Yellow + "Warning:" + Reset + " ",
		mirror: func(l Logger, m string) { l.Warn(m) },
		what:   "warning",
	}.print(strings.Join(msgs, " "))
}

// Info outputs an informational message to stdout.
func Info(msgs ...string) {
	line{
		prefix: Blue,
		mirror: func(l Logger, m string) { l.Info(m) },
		what:   "info",
	}.print(strings.Join(msgs, " "))
}

// LogInfo outputs an informational message to stderr, leaving stdout free
// for machine readable output.
func LogInfo(msgs ...string) {
	line{
		stderr: true,
		prefix: Blue,
		mirror: func(l Logger, m string) { l.Info(m) },
		what:   "log info",
	}.print(strings.Join(msgs, " "))
}

// Debug outputs a debug message to stderr if debug is enabled.
func Debug(msgs ...string) {
	if !debugEnabled.Load() {
		return
	}
	line{
		stderr: true,
		prefix: Cyan + "Debug:" + Reset + " ",
		mirror: func(l Logger, m string) { l.Debug(m) },
		what:   "debug",
	}.print(strings.Join(msgs, " "))
}
