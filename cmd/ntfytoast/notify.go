package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/app"
)

// configureRoot turns root into the notification command: the flags
// describe the notification and the exit status is its outcome.
func configureRoot(root *cobra.Command, client app.NotifyClient) *cobra.Command {
	if client == nil {
		panic("configureRoot: client dependency cannot be nil")
	}

	var input app.NotifyInput
	flags := root.Flags()
	flags.StringVarP(&input.Title, "title", "t", "", "Title, the first line of the notification")
	flags.StringVarP(&input.Message, "message", "m", "", "Message shown below the title")
	flags.StringVarP(&input.Image, "image", "p", "", "Image shown next to the text")
	flags.StringVarP(&input.Sound, "sound", "s", "", "Sound played when the notification appears")
	flags.StringVarP(&input.Duration, "duration", "d", "", "short or long")
	flags.StringVar(&input.ID, "id", "", "Id used to close the notification later")
	flags.BoolVar(&input.Silent, "silent", false, "Do not play a sound")
	flags.BoolVar(&input.Persistent, "persistent", false, "Keep the notification on screen until answered")
	flags.StringVar(&input.AppID, "appid", "", "Show the notification as this application")
	flags.StringVar(&input.PID, "pid", "", "Use the app id of this process, --appid as fallback")
	flags.StringVar(&input.Pipe, "pipename", "", "Socket the result is written to")
	flags.StringVar(&input.Application, "application", "", "Application started when the socket has no listener")
	flags.StringVarP(&input.Buttons, "buttons", "b", "", "Buttons, separated by ;")
	flags.BoolVar(&input.TextBox, "textbox", false, "Text box for a reply")

	root.RunE = func(c *cobra.Command, args []string) error {
		kind, err := app.NewNotifyUseCase(client).Execute(c.Context(), input)
		if errors.Is(err, app.ErrMissingContent) {
			cmd.PrintHelp(c.Root())
			return nil
		}
		if err != nil {
			return err
		}
		return cmd.Exit(kind)
	}
	return root
}

func init() {
	configureRoot(cmd.RootCmd, appRuntime)
}
