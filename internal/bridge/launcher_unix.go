//go:build unix

package bridge

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Start runs path in its own session with no stdio and reports whether it is
// still alive after the grace period.
func (l *ProcessLauncher) Start(ctx context.Context, path string) bool {
	cmd := exec.Command(path)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		l.logger.Warn("failed to start application", "application", path, "error", err)
		return false
	}
	pid := cmd.Process.Pid

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		l.logger.Warn("application exited during startup", "application", path, "pid", pid, "error", err)
		return false
	case <-ctx.Done():
		return false
	case <-time.After(l.grace):
	}

	if err := unix.Kill(pid, 0); err != nil {
		l.logger.Warn("application not alive after start", "application", path, "pid", pid, "error", err)
		return false
	}
	l.logger.Info("started application", "application", path, "pid", pid)
	return true
}
