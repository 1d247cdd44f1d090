package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestPrintHelp(t *testing.T) {
	root := &cobra.Command{
		Use:     "ntfytoast",
		Short:   "Test root",
		Version: "0.1.0",
	}
	root.AddCommand(
		&cobra.Command{Use: "install <shortcut> <application> <app id>", Short: "Register an application identity"},
		&cobra.Command{Use: "close <id>", Short: "Close a notification"},
		&cobra.Command{Use: "version", Short: "Show version information"},
		&cobra.Command{Use: "unlisted", Short: "Not in the fixed order"},
	)

	var buf bytes.Buffer
	outputWriter = &buf
	defer func() { outputWriter = nil }()

	PrintHelp(root)
	output := buf.String()

	for _, want := range []string{"ntfytoast v0.1.0", "Test root", "USAGE:", "OPTIONS:", "COMMANDS:", "EXIT STATUS:", "--pipename", "--textbox"} {
		assert.Contains(t, output, want)
	}
	assert.Contains(t, output, "install <shortcut> <application> <app id>")
	assert.NotContains(t, output, "unlisted")

	install := strings.Index(output, "install <shortcut>")
	version := strings.Index(output, "    version")
	assert.Less(t, install, version, "commands are listed in a fixed order")
}
