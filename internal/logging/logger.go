package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
)

// Logger is the structured logging interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a logger that adds the given key/value pairs to every entry.
	With(args ...any) Logger
	// Shutdown flushes any buffered logs and releases resources.
	Shutdown() error
}

// output is the log file shared by a logger and all of its With children.
type output struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

func (o *output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return len(p), nil
	}
	return o.file.Write(p)
}

func (o *output) close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.file.Close()
}

// fileLogger is the charmbracelet/log based implementation.
type fileLogger struct {
	clogger  *clog.Logger
	out      *output
	redactor *redactor
}

// Init initializes a new Logger with the given configuration.
// If cfg.Enabled is false, it returns a no-op logger. Otherwise it rotates
// old files, opens a fresh JSON log file and tags every entry with the pid
// and command.
func Init(cfg Config) (Logger, error) {
	if !cfg.Enabled {
		return noopLogger{}, nil
	}
	logDir, err := LogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine log directory: %w", err)
	}
	if err := rotate(logDir, cfg.MaxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
	}

	fname := fmt.Sprintf("%s%s_PID%d_%s.log",
		filePrefix,
		time.Now().Format("20060102_150405"),
		cfg.PID,
		strings.ReplaceAll(cfg.Command, " ", "_"))
	path := filepath.Join(logDir, fname)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	out := &output{file: f, path: path}

	clogger := clog.NewWithOptions(out, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           parseLevel(cfg.Level),
		Formatter:       clog.JSONFormatter,
	})
	return &fileLogger{
		clogger:  clogger.With("pid", cfg.PID, "command", cfg.Command),
		out:      out,
		redactor: newRedactor(),
	}, nil
}

func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *fileLogger) Debug(msg string, args ...any) { l.log(clog.DebugLevel, msg, args) }
func (l *fileLogger) Info(msg string, args ...any)  { l.log(clog.InfoLevel, msg, args) }
func (l *fileLogger) Warn(msg string, args ...any)  { l.log(clog.WarnLevel, msg, args) }
func (l *fileLogger) Error(msg string, args ...any) { l.log(clog.ErrorLevel, msg, args) }

func (l *fileLogger) log(level clog.Level, msg string, args []any) {
	l.clogger.Log(level, msg, l.redactor.redact(args)...)
}

func (l *fileLogger) With(args ...any) Logger {
	return &fileLogger{
		clogger:  l.clogger.With(l.redactor.redact(args)...),
		out:      l.out,
		redactor: l.redactor,
	}
}

// Shutdown closes the shared log file. Children created by With stop
// writing as well.
func (l *fileLogger) Shutdown() error {
	return l.out.close()
}

func (l *fileLogger) filePath() string {
	return l.out.path
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (n noopLogger) With(...any) Logger { return n }
func (noopLogger) Shutdown() error      { return nil }

// Nop returns a logger that discards everything. Components use it when
// they are constructed without a logger.
func Nop() Logger {
	return noopLogger{}
}

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// InitGlobal initializes the global logger from the global configuration and
// mirrors console output into it. Calling it again replaces the previous
// logger.
func InitGlobal() error {
	logger, err := Init(FromGlobalConfig())
	if err != nil {
		return err
	}

	globalLoggerMu.Lock()
	prev := globalLogger
	globalLogger = logger
	globalLoggerMu.Unlock()
	if prev != nil {
		prev.Shutdown()
	}

	if _, ok := logger.(*fileLogger); ok {
		colors.SetLogger(logger)
		colors.Debug("Logging to file:", CurrentLogFile())
	}
	return nil
}

// GetGlobal returns the global logger, or a no-op logger if not initialized.
func GetGlobal() Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if globalLogger == nil {
		return noopLogger{}
	}
	return globalLogger
}

// Info and Warn write to the global logger.
func Info(msg string, args ...any) { GetGlobal().Info(msg, args...) }
func Warn(msg string, args ...any) { GetGlobal().Warn(msg, args...) }

// ShutdownGlobal shuts down the global logger and detaches it from the console.
func ShutdownGlobal() error {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	colors.SetLogger(nil)
	err := globalLogger.Shutdown()
	globalLogger = nil
	return err
}

// CurrentLogFile returns the path of the active global log file, or "" when
// file logging is off.
func CurrentLogFile() string {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if impl, ok := globalLogger.(*fileLogger); ok {
		return impl.filePath()
	}
	return ""
}
