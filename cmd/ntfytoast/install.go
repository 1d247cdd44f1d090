package main

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/app"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
)

// NewInstallCmd creates the install command with explicit dependencies.
func NewInstallCmd(client app.InstallClient) *cobra.Command {
	if client == nil {
		panic("NewInstallCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "install <shortcut> <application> <app id>",
		Short: "Register an application identity with the desktop",
		Long: `Register an application identity with the desktop.

USAGE:
    ntfytoast install <shortcut> <application> <app id>

Writes a desktop entry named <shortcut> that starts <application> and a
D-Bus service for <app id> that delivers notification activations. Files
that already exist are left untouched.`,
		Args: func(c *cobra.Command, args []string) error {
			if len(args) != 3 {
				return ntfyerrors.New(ntfyerrors.ValidationFailed, "install",
					"supply arguments as install <shortcut> <application> <app id>")
			}
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			_, err := app.NewInstallUseCase(client).Execute(app.InstallInput{
				Shortcut: args[0],
				Exe:      args[1],
				AppID:    args[2],
			})
			return err
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewInstallCmd(appRuntime))
}
