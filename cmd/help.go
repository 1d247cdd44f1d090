package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// outputWriter overrides where help is written. Tests set it.
var outputWriter io.Writer

// helpCmd represents the help command
var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show this help message",
	Long:  `Show this help message.`,
	Run: func(cmd *cobra.Command, args []string) {
		PrintHelp(cmd.Root())
	},
}

func init() {
	RootCmd.SetHelpCommand(helpCmd)
}

func helpWriter(cmd *cobra.Command) io.Writer {
	if outputWriter != nil {
		return outputWriter
	}
	if cmd != nil {
		return cmd.ErrOrStderr()
	}
	return os.Stderr
}

// PrintHelp prints the usage of the root command to stderr.
func PrintHelp(cmd *cobra.Command) {
	commandOrder := []string{
		"install",
		"close",
		"listen",
		"history",
		"activate",
		"version",
		"help",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-32s %s", found.Use, found.Short))
	}

	helpText := fmt.Sprintf(`ntfytoast v%s

%s

USAGE:
    ntfytoast -t <title> -m <message> [OPTIONS]
    ntfytoast [COMMAND] [ARGS]

OPTIONS:
    -t, --title <title>         Title, the first line of the notification
    -m, --message <message>     Message shown below the title
    -p, --image <path>          Image shown next to the text (local files only)
    -s, --sound <name>          Sound played when the notification appears
    -d, --duration <duration>   short (7s) or long (25s)
        --id <id>               Id used to close the notification later
        --silent                Do not play a sound
        --persistent            Keep the notification on screen until answered
        --appid <app id>        Show the notification as this application
        --pid <pid>             Use the app id of process <pid>, --appid as fallback
        --pipename <path>       Socket the result is written to
        --application <path>    Application started when the socket has no listener
    -b, --buttons <a;b>         Buttons, separated by ;
        --textbox               Text box for a reply (needs --pipename, not with --buttons)
    -h, --help                  Show this help

COMMANDS:
%s

EXIT STATUS:
    0 clicked, 1 hidden, 2 dismissed, 3 timed out, 4 button clicked,
    5 text entered, 255 error
`, cmd.Version, cmd.Short, strings.Join(cmdLines, "\n"))
	fmt.Fprint(helpWriter(cmd), helpText)
}
