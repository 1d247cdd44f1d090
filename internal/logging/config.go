// Package logging provides structured file logging for ntfytoast.
package logging

import (
	"os"
	"path/filepath"

	"github.com/cristianoliveira/ntfytoast/internal/config"
)

// Config selects whether and where a process logs. Command and PID end up
// in the file name and on every entry.
type Config struct {
	Enabled  bool
	Level    string
	MaxFiles int
	Command  string
	PID      int
}

// FromGlobalConfig reads the logging_* keys. debug forces the debug level;
// quiet, when debug is off, forces error.
func FromGlobalConfig() Config {
	level := config.Get("logging_level", "info")
	if config.GetBool("debug", false) {
		level = "debug"
	} else if config.GetBool("quiet", false) {
		level = "error"
	}
	return Config{
		Enabled:  config.GetBool("logging_enabled", false),
		Level:    level,
		MaxFiles: config.GetInt("logging_max_files", 10),
		Command:  filepath.Base(os.Args[0]),
		PID:      os.Getpid(),
	}
}

// LogDir returns the directory where log files should be stored:
// {state_dir}/logs when it can be created and written, otherwise
// {os.TempDir()}/ntfytoast/logs.
func LogDir() (string, error) {
	if stateDir := config.Get("state_dir", ""); stateDir != "" {
		logDir := filepath.Join(stateDir, "logs")
		if err := os.MkdirAll(logDir, 0700); err == nil && writable(logDir) {
			return logDir, nil
		}
	}
	tempBase := filepath.Join(os.TempDir(), "ntfytoast", "logs")
	if err := os.MkdirAll(tempBase, 0700); err != nil {
		return "", err
	}
	return tempBase, nil
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
