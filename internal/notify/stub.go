//go:build !linux

package notify

import (
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
)

// New reports that no notification service is reachable on this platform.
func New() (Notifier, error) {
	return nil, ntfyerrors.New(ntfyerrors.PlatformDenied, "notify.New", "desktop notifications need a D-Bus session")
}
