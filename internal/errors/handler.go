package errors

import (
	"sync"
)

// Console is where a CLIHandler writes. The colors package provides the
// default one.
type Console interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

// CLIHandler presents errors of the command line on the console.
type CLIHandler struct {
	console Console

	// reporting guards against a console that reports its own failures
	// back into the handler.
	mu        sync.Mutex
	reporting bool
}

// NewCLIHandler creates a handler writing to console.
func NewCLIHandler(console Console) *CLIHandler {
	return &CLIHandler{console: console}
}

// Report prints err according to its kind and reports whether the caller
// should follow up with usage help. Platform denials and unavailable
// channels are diagnostics, not failures of the command line.
func (h *CLIHandler) Report(err error) (showHelp bool) {
	if err == nil {
		return false
	}
	h.mu.Lock()
	nested := h.reporting
	h.reporting = true
	h.mu.Unlock()
	if nested {
		h.console.Error(err.Error())
		return false
	}
	defer func() {
		h.mu.Lock()
		h.reporting = false
		h.mu.Unlock()
	}()

	kind, _ := KindOf(err)
	switch kind {
	case PlatformDenied, ChannelUnavailable:
		h.console.Warning(err.Error())
		return false
	case ValidationFailed, NoChannelConfigured:
		h.console.Error(err.Error())
		return true
	default:
		h.console.Error(err.Error())
		return false
	}
}
