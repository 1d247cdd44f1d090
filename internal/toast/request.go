// Package toast describes a notification request and builds the structured
// document submitted to the rendering service.
package toast

import (
	"fmt"
	"strings"

	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/go-playground/validator/v10"
)

// Duration is the display duration class.
type Duration int

const (
	Short Duration = iota
	Long
)

func (d Duration) String() string {
	if d == Long {
		return "long"
	}
	return "short"
}

// ParseDuration maps "short" or "long" (any case) to a Duration.
func ParseDuration(s string) (Duration, error) {
	switch strings.ToLower(s) {
	case "short", "":
		return Short, nil
	case "long":
		return Long, nil
	}
	return Short, ntfyerrors.New(ntfyerrors.ValidationFailed, "toast.ParseDuration",
		fmt.Sprintf("invalid duration %q: must be short or long", s))
}

// DefaultSound is the sound selector used when none is given.
const DefaultSound = "Notification.Default"

// Request is a caller-supplied notification. It is not modified once
// submitted. Values that end up inside action payloads must not contain the
// payload delimiters.
type Request struct {
	AppID       string `validate:"required"`
	ID          string `validate:"nodelim"`
	Title       string `validate:"required"`
	Body        string `validate:"required"`
	Image       string
	Sound       string
	Silent      bool
	Persistent  bool
	Duration    Duration `validate:"min=0,max=1"`
	Buttons     []string `validate:"dive,required,nodelim"`
	TextInput   bool
	Pipe        string `validate:"nodelim"`
	Application string `validate:"nodelim"`
}

// Interactive reports whether the request asks for buttons or text input.
func (r Request) Interactive() bool {
	return len(r.Buttons) > 0 || r.TextInput
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("nodelim", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), ";=")
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Request)
		if len(r.Buttons) > 0 && r.TextInput {
			sl.ReportError(r.TextInput, "TextInput", "TextInput", "nobuttons", "")
		}
	}, Request{})
	return v
}

// Validate checks the request before a display attempt. Title and body are
// required, buttons and text input are exclusive, and payload-embedded values
// must be free of ';' and '='. Failures are ValidationFailed.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ntfyerrors.Wrap(ntfyerrors.ValidationFailed, "toast.Validate", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return ntfyerrors.New(ntfyerrors.ValidationFailed, "toast.Validate", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.StructField())
	if fe.StructNamespace() != "Request."+fe.StructField() {
		// dive: Buttons[1]
		field = strings.ToLower(strings.TrimPrefix(fe.StructNamespace(), "Request."))
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "nodelim":
		return fmt.Sprintf("%s %q must not contain ';' or '='", field, fe.Value())
	case "nobuttons":
		return "buttons and text input cannot be combined"
	case "min", "max":
		return field + " is out of range"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
