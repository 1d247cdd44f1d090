// Package errors defines the ntfytoast error taxonomy and the handlers that
// present errors to the user.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// ValidationFailed marks missing required fields or conflicting options.
	ValidationFailed Kind = iota + 1
	// SubmissionFailed marks a document rejected by the rendering service.
	SubmissionFailed
	// DocumentBuildFailed marks a structural error while building a document.
	DocumentBuildFailed
	// MissingField marks a decoded payload lacking a required key.
	MissingField
	// ChannelUnavailable marks a delivery channel that could not be opened.
	ChannelUnavailable
	// Timeout marks a wait that exceeded its bound.
	Timeout
	// PlatformDenied marks notifications disabled for the user or application.
	PlatformDenied
	// NoChannelConfigured marks an interactive request that needs a delivery channel.
	NoChannelConfigured
)

var kindNames = map[Kind]string{
	ValidationFailed:    "validation failed",
	SubmissionFailed:    "submission failed",
	DocumentBuildFailed: "document build failed",
	MissingField:        "missing field",
	ChannelUnavailable:  "channel unavailable",
	Timeout:             "timeout",
	PlatformDenied:      "platform denied",
	NoChannelConfigured: "no channel configured",
}

// String returns a human readable name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error satisfies the error interface so a bare Kind can be used as a
// target for errors.Is.
func (k Kind) Error() string {
	return k.String()
}

// Error is a classified failure raised by operation Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a target Kind, or another *Error with the same Kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New creates a classified error with a plain message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: stderrors.New(msg)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
