package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/app"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/config"
)

// NewActivateCmd creates the activate command with explicit dependencies.
func NewActivateCmd(client app.ActivateClient) *cobra.Command {
	if client == nil {
		panic("NewActivateCmd: client dependency cannot be nil")
	}

	var input app.ActivateInput
	activateCmd := &cobra.Command{
		Use:   "activate <arguments>",
		Short: "Deliver a notification activation",
		Long: `Deliver a notification activation as if the desktop reported it.

USAGE:
    ntfytoast activate <arguments> [OPTIONS]

<arguments> is the action payload of the activated element. The result is
written to its pipe and the waiting ntfytoast process, if any, is woken.

OPTIONS:
    --appid <app id>     Application the notification was shown as
    --text <text>        Reply text for a text box notification
    -h, --help           Show this help`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			input.Args = args[0]
			kind, err := app.NewActivateUseCase(client).Execute(c.Context(), input)
			if err != nil {
				return err
			}
			return cmd.Exit(kind)
		},
	}
	activateCmd.Flags().StringVar(&input.AppID, "appid", "", "Application the notification was shown as")
	activateCmd.Flags().StringVar(&input.Text, "text", "", "Reply text for a text box notification")
	return activateCmd
}

// embeddedHandler serves the activation endpoint when the desktop starts
// ntfytoast through its D-Bus service.
func embeddedHandler(client app.ActivateClient) func(ctx context.Context, appID string) action.Kind {
	if client == nil {
		panic("embeddedHandler: client dependency cannot be nil")
	}
	return func(ctx context.Context, appID string) action.Kind {
		if appID == "" {
			appID = config.Get("app_id", config.DefaultAppID)
		}
		timeout := time.Duration(config.GetInt("timeout_seconds", 60)) * time.Second
		kind, err := app.NewActivateUseCase(client).Embedded(ctx, appID, timeout)
		if err != nil {
			colors.Error(fmt.Sprintf("embedded: %v", err))
		}
		return kind
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewActivateCmd(appRuntime))
	cmd.EmbeddedHandler = embeddedHandler(appRuntime)
}
