package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingConsole struct {
	errors, warnings []string
	// handler, when set, receives a nested report from inside Error.
	handler *CLIHandler
}

func (r *recordingConsole) Error(msgs ...string) {
	r.errors = append(r.errors, msgs...)
	if h := r.handler; h != nil {
		r.handler = nil
		h.Report(stderrors.New("console broke"))
	}
}
func (r *recordingConsole) Warning(msgs ...string) { r.warnings = append(r.warnings, msgs...) }
func (r *recordingConsole) Info(...string)         {}
func (r *recordingConsole) Success(...string)      {}

func TestCLIHandlerReport(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantHelp    bool
		wantError   bool
		wantWarning bool
	}{
		{name: "nil error", err: nil},
		{name: "validation shows help", err: New(ValidationFailed, "session.DisplayToast", "title is required"), wantHelp: true, wantError: true},
		{name: "missing channel shows help", err: New(NoChannelConfigured, "session.DisplayToast", "text input needs a pipe"), wantHelp: true, wantError: true},
		{name: "wrapped validation shows help", err: fmt.Errorf("notify: %w", New(ValidationFailed, "toast.Validate", "bad")), wantHelp: true, wantError: true},
		{name: "platform denial is a warning", err: New(PlatformDenied, "notify.Show", "inhibited"), wantWarning: true},
		{name: "busy channel is a warning", err: New(ChannelUnavailable, "bridge.Listen", "in use"), wantWarning: true},
		{name: "submission is an error without help", err: New(SubmissionFailed, "notify.Show", "rejected"), wantError: true},
		{name: "plain error", err: stderrors.New("boom"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console := &recordingConsole{}
			showHelp := NewCLIHandler(console).Report(tt.err)

			assert.Equal(t, tt.wantHelp, showHelp)
			assert.Equal(t, tt.wantError, len(console.errors) > 0)
			assert.Equal(t, tt.wantWarning, len(console.warnings) > 0)
			if tt.err != nil && (tt.wantError || tt.wantWarning) {
				assert.Contains(t, append(console.errors, console.warnings...), tt.err.Error())
			}
		})
	}
}

func TestCLIHandlerNestedReport(t *testing.T) {
	console := &recordingConsole{}
	handler := NewCLIHandler(console)
	console.handler = handler

	assert.True(t, handler.Report(New(ValidationFailed, "cmd", "bad flag")))
	assert.Equal(t, []string{"cmd: validation failed: bad flag", "console broke"}, console.errors)

	// the guard is released afterwards
	console.errors = nil
	assert.True(t, handler.Report(New(ValidationFailed, "cmd", "again")))
	assert.Len(t, console.errors, 1)
}

func TestNewDefaultCLIHandler(t *testing.T) {
	h := NewDefaultCLIHandler()
	_, ok := h.console.(colorsConsole)
	assert.True(t, ok)
}
