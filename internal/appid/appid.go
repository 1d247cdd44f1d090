// Package appid finds the application id of a running process from its
// environment.
package appid

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
)

// procRoot is where process information is read from.
var procRoot = "/proc"

// sandboxKeys are checked in order; the first non-empty one wins.
var sandboxKeys = []string{
	"FLATPAK_ID",
	"SNAP_NAME",
	"GIO_LAUNCHED_DESKTOP_FILE",
	"BAMF_DESKTOP_FILE_HINT",
}

// FromPID returns the application id of process pid. fallback is returned
// when pid is empty or the id cannot be determined.
func FromPID(pid, fallback string) string {
	if pid == "" {
		return fallback
	}
	id, err := lookup(pid)
	if err != nil {
		colors.Debug(fmt.Sprintf("Failed to retrieve appid for %s: %v", pid, err))
		return fallback
	}
	colors.Debug("AppId from pid " + id)
	return id
}

func lookup(pid string) (string, error) {
	n, err := strconv.Atoi(pid)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid pid %q", pid)
	}
	data, err := os.ReadFile(filepath.Join(procRoot, strconv.Itoa(n), "environ"))
	if err != nil {
		return "", err
	}
	env := parseEnviron(data)
	for _, key := range sandboxKeys {
		if v := env[key]; v != "" {
			return fromDesktopFile(v), nil
		}
	}
	return "", fmt.Errorf("process %d is not a packaged desktop application", n)
}

func parseEnviron(data []byte) map[string]string {
	env := make(map[string]string)
	for _, entry := range bytes.Split(data, []byte{0}) {
		k, v, ok := strings.Cut(string(entry), "=")
		if ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// fromDesktopFile turns a desktop file path into its id.
func fromDesktopFile(v string) string {
	if !strings.HasSuffix(v, ".desktop") {
		return v
	}
	return strings.TrimSuffix(filepath.Base(v), ".desktop")
}
