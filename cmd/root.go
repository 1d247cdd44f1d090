package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/version"
)

// EmbeddingFlag on the command line starts ntfytoast as an activation
// endpoint instead of parsing flags.
const EmbeddingFlag = "-Embedding"

// RootCmd represents the base command. Without a subcommand it shows a
// notification and exits with the outcome.
var RootCmd = &cobra.Command{
	Use:           "ntfytoast",
	Short:         "Show desktop notifications and report how the user answered.",
	Long:          `Show desktop notifications and report how the user answered.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// EmbeddedHandler runs when the desktop launches ntfytoast to deliver an
// activation. appID is the identity named after EmbeddingFlag, if any.
var EmbeddedHandler func(ctx context.Context, appID string) action.Kind

// ExitStatus carries a notification outcome out of a command. Clicked is
// not an ExitStatus: commands return nil for it.
type ExitStatus struct {
	Kind action.Kind
}

func (e *ExitStatus) Error() string {
	return "outcome: " + e.Kind.String()
}

// Exit turns an outcome into the error a command returns.
func Exit(kind action.Kind) error {
	if kind == action.Clicked {
		return nil
	}
	return &ExitStatus{Kind: kind}
}

var errorHandler = ntfyerrors.NewDefaultCLIHandler()

// Execute runs the command line args and returns the process exit status:
// the outcome ordinal, or -1 for errors.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appID, ok := EmbeddedAppID(args); ok && EmbeddedHandler != nil {
		return int(EmbeddedHandler(ctx, appID))
	}
	RootCmd.SetArgs(args)
	return StatusOf(RootCmd.ExecuteContext(ctx))
}

// StatusOf maps a command error to the exit status, reporting real errors
// on the console.
func StatusOf(err error) int {
	if err == nil {
		return int(action.Clicked)
	}
	var status *ExitStatus
	if errors.As(err, &status) {
		return int(status.Kind)
	}
	if errorHandler.Report(err) {
		PrintHelp(RootCmd)
	}
	return int(action.Error)
}

// EmbeddedAppID reports whether args ask for embedded mode and returns the
// argument following the flag.
func EmbeddedAppID(args []string) (string, bool) {
	for i, arg := range args {
		if !strings.Contains(arg, EmbeddingFlag) {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			return args[i+1], true
		}
		return "", true
	}
	return "", false
}

func init() {
	RootCmd.Version = version.String()
	RootCmd.SetVersionTemplate(fmt.Sprintf("ntfytoast version %s\n", version.String()))

	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			fmt.Fprint(helpWriter(cmd), cmd.Long+"\n")
			return
		}
		PrintHelp(cmd)
	})

	RootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return ntfyerrors.Wrap(ntfyerrors.ValidationFailed, cmd.Name(), err)
	})
}
