package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/history"
	"github.com/cristianoliveira/ntfytoast/internal/render"
)

// HistoryClient defines dependencies required to list shown notifications.
type HistoryClient interface {
	ListHistory(ctx context.Context, appID string, limit int) ([]history.Entry, error)
}

// HistoryInput represents history command inputs after flag parsing.
type HistoryInput struct {
	AppID string
	Limit int
	Out   io.Writer
	Now   time.Time
}

// HistoryUseCase prints the notification history.
type HistoryUseCase struct {
	client HistoryClient
}

// NewHistoryUseCase creates a new history use-case.
func NewHistoryUseCase(client HistoryClient) *HistoryUseCase {
	if client == nil {
		panic("NewHistoryUseCase: client dependency cannot be nil")
	}
	return &HistoryUseCase{client: client}
}

// Execute renders the newest entries as a table.
func (u *HistoryUseCase) Execute(ctx context.Context, input HistoryInput) error {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, err := u.client.ListHistory(ctx, input.AppID, limit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	_, err = fmt.Fprintln(input.Out, render.History(entries, input.Now))
	return err
}
