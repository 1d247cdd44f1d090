package bridge

import (
	"context"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/logging"
)

// DefaultLaunchGrace is how long a started application must stay alive to
// count as started.
const DefaultLaunchGrace = 500 * time.Millisecond

// Launcher starts the fallback application of a payload.
type Launcher interface {
	Start(ctx context.Context, path string) bool
}

// ProcessLauncher starts applications detached from this process.
type ProcessLauncher struct {
	grace  time.Duration
	logger logging.Logger
}

// NewProcessLauncher creates a launcher. A non-positive grace selects
// DefaultLaunchGrace.
func NewProcessLauncher(grace time.Duration, logger logging.Logger) *ProcessLauncher {
	if grace <= 0 {
		grace = DefaultLaunchGrace
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProcessLauncher{grace: grace, logger: logger}
}
