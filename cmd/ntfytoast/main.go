package main

import (
	"fmt"
	"os"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/config"
	"github.com/cristianoliveira/ntfytoast/internal/hooks"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	config.Load()
	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))

	if err := logging.InitGlobal(); err != nil {
		colors.Warning(fmt.Sprintf("file logging disabled: %v", err))
	}
	defer logging.ShutdownGlobal()

	_ = hooks.Init()
	defer hooks.Shutdown()
	defer func() {
		if err := appRuntime.Close(); err != nil {
			logging.Warn("shutdown", "error", err)
		}
	}()

	logging.Info("started", "args", args)
	status := cmd.Execute(args)
	logging.Info("finished", "status", status)
	return status
}
