//go:build !unix

package bridge

import (
	"context"
	"os/exec"
	"time"
)

// Start runs path and reports whether it is still running after the grace
// period.
func (l *ProcessLauncher) Start(ctx context.Context, path string) bool {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		l.logger.Warn("failed to start application", "application", path, "error", err)
		return false
	}
	exited := make(chan struct{})
	go func() { cmd.Wait(); close(exited) }()

	select {
	case <-exited:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(l.grace):
		return true
	}
}
