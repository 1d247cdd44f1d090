package errors

import "github.com/cristianoliveira/ntfytoast/internal/colors"

type colorsConsole struct{}

func (colorsConsole) Error(msgs ...string)   { colors.Error(msgs...) }
func (colorsConsole) Warning(msgs ...string) { colors.Warning(msgs...) }
func (colorsConsole) Info(msgs ...string)    { colors.Info(msgs...) }
func (colorsConsole) Success(msgs ...string) { colors.Success(msgs...) }

// NewDefaultCLIHandler creates a handler writing colored messages to the
// terminal.
func NewDefaultCLIHandler() *CLIHandler {
	return NewCLIHandler(colorsConsole{})
}
