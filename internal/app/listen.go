package app

import (
	"context"
	"fmt"
	"io"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
)

// ListenClient defines dependencies required to read a delivery channel.
type ListenClient interface {
	Listen(path string) (Receiver, error)
}

// ListenInput represents listen command inputs after flag parsing.
type ListenInput struct {
	Path string
	// Count stops after that many payloads; zero reads until ctx ends.
	Count int
	Out   io.Writer
}

// ListenUseCase prints the payloads written to a delivery channel, one per
// line, prefixed with the decoded action.
type ListenUseCase struct {
	client ListenClient
}

// NewListenUseCase creates a new listen use-case.
func NewListenUseCase(client ListenClient) *ListenUseCase {
	if client == nil {
		panic("NewListenUseCase: client dependency cannot be nil")
	}
	return &ListenUseCase{client: client}
}

// Execute reads payloads until Count is reached or ctx ends. It returns the
// number of payloads printed.
func (u *ListenUseCase) Execute(ctx context.Context, input ListenInput) (int, error) {
	if input.Path == "" {
		return 0, fmt.Errorf("listen: a channel path is required")
	}
	recv, err := u.client.Listen(input.Path)
	if err != nil {
		return 0, fmt.Errorf("listen: %w", err)
	}
	defer recv.Close()
	defer colors.DisableStructuredLogging()()
	colors.LogInfo("Listening on " + recv.Path())

	n := 0
	for input.Count <= 0 || n < input.Count {
		payload, err := recv.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return n, nil
			}
			return n, fmt.Errorf("listen: %w", err)
		}
		n++

		kind := action.Error
		if p, err := action.DecodePayload(payload); err == nil {
			kind = p.Action
		} else {
			colors.Debug(fmt.Sprintf("undecodable payload %q: %v", payload, err))
		}
		if _, err := fmt.Fprintf(input.Out, "%s\t%s\n", kind, payload); err != nil {
			return n, err
		}
	}
	return n, nil
}
