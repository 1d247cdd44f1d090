package main

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/app"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
)

// NewCloseCmd creates the close command with explicit dependencies.
func NewCloseCmd(client app.CloseClient) *cobra.Command {
	if client == nil {
		panic("NewCloseCmd: client dependency cannot be nil")
	}

	var input app.CloseInput
	closeCmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close a notification shown with --id",
		Long: `Close a notification shown earlier with --id.

USAGE:
    ntfytoast close <id> [OPTIONS]

A process still waiting for the notification is woken and reports hidden.
Otherwise the notification is looked up in the history and withdrawn.

OPTIONS:
    --appid <app id>     Application the notification was shown as
    --pid <pid>          Use the app id of process <pid>
    -h, --help           Show this help`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			input.ID = args[0]
			closed, err := app.NewCloseUseCase(client).Execute(c.Context(), input)
			if err != nil {
				return err
			}
			if !closed {
				colors.Warning("no notification with id " + input.ID)
				return cmd.Exit(action.Error)
			}
			colors.Success("Notification " + input.ID + " closed")
			return nil
		},
	}
	closeCmd.Flags().StringVar(&input.AppID, "appid", "", "Application the notification was shown as")
	closeCmd.Flags().StringVar(&input.PID, "pid", "", "Use the app id of this process")
	return closeCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewCloseCmd(appRuntime))
}
