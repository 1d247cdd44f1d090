package main

import "github.com/cristianoliveira/ntfytoast/internal/app"

// appRuntime is shared by every command of the process. Its collaborators
// are created on first use, after logging is set up.
var appRuntime = app.NewRuntime(nil)
