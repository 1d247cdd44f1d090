package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

// ActivateClient defines dependencies required to handle activations.
type ActivateClient interface {
	Activate(ctx context.Context, appID, args string, inputs []bridge.Input) (action.Payload, error)
	WaitForCallbackActivation(ctx context.Context, appID string, timeout time.Duration) (bridge.WaitResult, error)
}

// ActivateInput is an activation reported outside the bus, for example by
// a desktop that runs a command for the notification action.
type ActivateInput struct {
	AppID string
	Args  string
	Text  string
}

// ActivateUseCase feeds activations into the correlation bridge.
type ActivateUseCase struct {
	client ActivateClient
}

// NewActivateUseCase creates a new activate use-case.
func NewActivateUseCase(client ActivateClient) *ActivateUseCase {
	if client == nil {
		panic("NewActivateUseCase: client dependency cannot be nil")
	}
	return &ActivateUseCase{client: client}
}

// Execute handles one activation and returns its outcome.
func (u *ActivateUseCase) Execute(ctx context.Context, input ActivateInput) (action.Kind, error) {
	if input.Args == "" {
		return action.Error, ntfyerrors.New(ntfyerrors.ValidationFailed, "activate", "activation arguments are required")
	}
	var inputs []bridge.Input
	if input.Text != "" {
		inputs = []bridge.Input{{Key: toast.TextBoxID, Value: input.Text}}
	}
	p, err := u.client.Activate(ctx, input.AppID, input.Args, inputs)
	if err != nil {
		return action.Error, fmt.Errorf("activate: %w", err)
	}
	return p.Action, nil
}

// Embedded serves the activation endpoint for appID until one activation
// was handled. A launch by the desktop that brings no activation within
// timeout is not an error.
func (u *ActivateUseCase) Embedded(ctx context.Context, appID string, timeout time.Duration) (action.Kind, error) {
	res, err := u.client.WaitForCallbackActivation(ctx, appID, timeout)
	if err != nil {
		return action.Error, err
	}
	if res == bridge.TimedOut {
		return action.Timedout, nil
	}
	return action.Clicked, nil
}
