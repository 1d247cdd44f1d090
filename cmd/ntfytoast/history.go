package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/app"
)

// NewHistoryCmd creates the history command with explicit dependencies.
func NewHistoryCmd(client app.HistoryClient) *cobra.Command {
	if client == nil {
		panic("NewHistoryCmd: client dependency cannot be nil")
	}

	var input app.HistoryInput
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recently shown notifications",
		Long: `List recently shown notifications and their outcome.

USAGE:
    ntfytoast history [OPTIONS]

OPTIONS:
    --appid <app id>     Only show notifications of this application
    -n, --limit <n>      Number of entries (default: 20)
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			input.Out = c.OutOrStdout()
			input.Now = time.Now()
			return app.NewHistoryUseCase(client).Execute(c.Context(), input)
		},
	}
	historyCmd.Flags().StringVar(&input.AppID, "appid", "", "Only show notifications of this application")
	historyCmd.Flags().IntVarP(&input.Limit, "limit", "n", 20, "Number of entries")
	return historyCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewHistoryCmd(appRuntime))
}
