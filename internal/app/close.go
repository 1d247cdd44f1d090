package app

import (
	"context"

	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

// CloseClient defines dependencies required to close a notification.
type CloseClient interface {
	NewCloseSession(req toast.Request) (Toast, error)
}

// CloseInput represents close command inputs after flag parsing.
type CloseInput struct {
	ID    string
	AppID string
	PID   string
}

// CloseUseCase closes a notification shown by an earlier invocation.
type CloseUseCase struct {
	client CloseClient
}

// NewCloseUseCase creates a new close use-case.
func NewCloseUseCase(client CloseClient) *CloseUseCase {
	if client == nil {
		panic("NewCloseUseCase: client dependency cannot be nil")
	}
	return &CloseUseCase{client: client}
}

// Execute reports whether a notification with input.ID was found and
// closed. It never waits for a result.
func (u *CloseUseCase) Execute(ctx context.Context, input CloseInput) (bool, error) {
	if input.ID == "" {
		return false, ntfyerrors.New(ntfyerrors.ValidationFailed, "close", "close only works if an id was provided")
	}
	appID, err := resolveAppID(input.AppID, input.PID, nil)
	if err != nil {
		return false, err
	}

	sess, err := u.client.NewCloseSession(toast.Request{AppID: appID, ID: input.ID})
	if err != nil {
		return false, err
	}
	defer sess.Release()
	return sess.CloseNotification(ctx), nil
}
