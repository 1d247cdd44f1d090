package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/appid"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/config"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

// ErrMissingContent is returned when a notification lacks a title or a
// message. The CLI answers it with the usage text.
var ErrMissingContent = errors.New("a title and a message are required")

// NotifyClient defines dependencies required to show a notification.
type NotifyClient interface {
	EnsureIdentity(appID string) error
	DefaultIcon() (string, error)
	NewSession(req toast.Request) (Toast, error)
}

// NotifyInput represents notification flags after parsing.
type NotifyInput struct {
	Title       string
	Message     string
	Image       string
	Sound       string
	Duration    string
	ID          string
	Silent      bool
	Persistent  bool
	AppID       string
	PID         string
	Pipe        string
	Application string
	// Buttons is a ;-separated list of labels.
	Buttons string
	TextBox bool
}

// NotifyUseCase shows a notification and waits for the user.
type NotifyUseCase struct {
	client NotifyClient
}

// NewNotifyUseCase creates a new notify use-case.
func NewNotifyUseCase(client NotifyClient) *NotifyUseCase {
	if client == nil {
		panic("NewNotifyUseCase: client dependency cannot be nil")
	}
	return &NotifyUseCase{client: client}
}

// Execute shows the notification described by input and returns the
// outcome. Errors are reported with action.Error, except ErrMissingContent
// which is not a failure.
func (u *NotifyUseCase) Execute(ctx context.Context, input NotifyInput) (action.Kind, error) {
	if input.Title == "" || input.Message == "" {
		return action.Clicked, ErrMissingContent
	}
	if input.TextBox && input.Pipe == "" {
		return action.Error, ntfyerrors.New(ntfyerrors.NoChannelConfigured, "notify",
			"text box notifications only work if a pipe for the result was provided")
	}

	appID, err := resolveAppID(input.AppID, input.PID, u.client.EnsureIdentity)
	if err != nil {
		return action.Error, err
	}

	req, err := buildRequest(appID, input)
	if err != nil {
		return action.Error, err
	}

	image := input.Image
	if image == "" {
		if image, err = u.client.DefaultIcon(); err != nil {
			colors.Warning(fmt.Sprintf("bundled icon unavailable: %v", err))
			image = ""
		}
	} else if abs, err := filepath.Abs(image); err == nil {
		image = abs
	}

	sess, err := u.client.NewSession(req)
	if err != nil {
		return action.Error, err
	}
	defer sess.Release()

	if err := sess.DisplayToast(ctx, input.Title, input.Message, image); err != nil {
		return action.Error, err
	}
	return sess.UserAction(ctx), nil
}

func buildRequest(appID string, input NotifyInput) (toast.Request, error) {
	durationName := input.Duration
	if durationName == "" {
		durationName = config.Get("duration", "short")
	}
	duration, err := toast.ParseDuration(durationName)
	if err != nil {
		return toast.Request{}, err
	}

	sound := input.Sound
	if sound == "" {
		sound = config.Get("sound", toast.DefaultSound)
	}

	return toast.Request{
		AppID:       appID,
		ID:          input.ID,
		Title:       input.Title,
		Body:        input.Message,
		Sound:       sound,
		Silent:      input.Silent,
		Persistent:  input.Persistent,
		Duration:    duration,
		Buttons:     SplitButtons(input.Buttons),
		TextInput:   input.TextBox,
		Pipe:        input.Pipe,
		Application: input.Application,
	}, nil
}

// SplitButtons splits a ;-separated label list, dropping empty labels.
func SplitButtons(s string) []string {
	var labels []string
	for _, label := range strings.Split(s, ";") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// resolveAppID picks the identity for a notification: the app id of pid
// when it can be determined, then the explicit app id, then the configured
// default, which is installed on first use.
func resolveAppID(appID, pid string, ensure func(string) error) (string, error) {
	if pid != "" {
		appID = appid.FromPID(pid, appID)
	}
	if appID != "" {
		return appID, nil
	}
	appID = config.Get("app_id", config.DefaultAppID)
	if ensure != nil {
		if err := ensure(appID); err != nil {
			return "", fmt.Errorf("notify: register %s: %w", appID, err)
		}
	}
	return appID, nil
}
