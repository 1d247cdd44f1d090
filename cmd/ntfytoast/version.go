package main

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/app"
)

// NewVersionCmd creates the version command with explicit dependencies.
func NewVersionCmd(client app.VersionClient) *cobra.Command {
	if client == nil {
		panic("NewVersionCmd: client dependency cannot be nil")
	}

	var appID string
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the version of ntfytoast and the activation identity of an app id.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return app.NewVersionUseCase(client).Execute(app.VersionInput{AppID: appID, Out: c.OutOrStdout()})
		},
	}
	versionCmd.Flags().StringVar(&appID, "appid", "", "Show the activation identity of this app id")
	return versionCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewVersionCmd(appRuntime))
}
