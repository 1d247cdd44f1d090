package main

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/app"
)

// NewListenCmd creates the listen command with explicit dependencies.
func NewListenCmd(client app.ListenClient) *cobra.Command {
	if client == nil {
		panic("NewListenCmd: client dependency cannot be nil")
	}

	var count int
	listenCmd := &cobra.Command{
		Use:   "listen <path>",
		Short: "Print the results written to a --pipename socket",
		Long: `Print the results written to a --pipename socket.

USAGE:
    ntfytoast listen <path> [OPTIONS]

Each result is printed on its own line as the action followed by the raw
payload, separated by a tab.

OPTIONS:
    -n, --count <n>      Exit after n results (default: run until interrupted)
    -h, --help           Show this help`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			_, err := app.NewListenUseCase(client).Execute(c.Context(), app.ListenInput{
				Path:  args[0],
				Count: count,
				Out:   c.OutOrStdout(),
			})
			return err
		},
	}
	listenCmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after n results")
	return listenCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewListenCmd(appRuntime))
}
